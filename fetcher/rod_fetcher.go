package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"html-scraper/config"
	"html-scraper/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// loginPollInterval is how often the page URL is checked while waiting for a login to complete
const loginPollInterval = 250 * time.Millisecond

// RodFetcher implements the Fetcher interface by logging in through a
// headless browser. Every Fetch launches its own browser and tears it down
// before returning; concurrent calls are not supported.
type RodFetcher struct {
	browser config.BrowserConfig
	login   config.LoginConfig
}

// NewRodFetcher creates a new RodFetcher instance
func NewRodFetcher(browser config.BrowserConfig, login config.LoginConfig) *RodFetcher {
	return &RodFetcher{
		browser: browser,
		login:   login,
	}
}

// Fetch implements the Fetcher interface
func (rf *RodFetcher) Fetch(ctx context.Context, req models.FetchRequest) (string, error) {
	if req.Credentials == nil {
		return "", fmt.Errorf("%w: authenticated fetch requires credentials", models.ErrInvalidRequest)
	}

	log.Info().Str("login_url", rf.login.URL).Msg("Login required, starting browser")

	browser, teardown, err := launchBrowser(ctx, rf.browser)
	if err != nil {
		return "", newError(DriverLaunchFailure, req.URL, err)
	}
	defer teardown()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", newError(DriverLaunchFailure, req.URL, fmt.Errorf("failed to open page: %w", err))
	}

	if err := rf.logIn(page, *req.Credentials, req.URL); err != nil {
		return "", err
	}
	log.Debug().Msg("Login completed")

	html, err := rf.loadTarget(page, req.URL)
	if err != nil {
		return "", err
	}

	log.Info().Str("url", req.URL).Int("bytes", len(html)).Msg("Page successfully fetched")
	return html, nil
}

// logIn opens the login page, fills the credential fields and waits until
// the browser has left the login page or the success marker shows up.
func (rf *RodFetcher) logIn(page *rod.Page, creds models.Credentials, target string) error {
	nav := page.Timeout(rf.login.PageTimeout)
	defer nav.CancelTimeout()

	if err := nav.Navigate(rf.login.URL); err != nil {
		return newError(NetworkFailure, target, fmt.Errorf("failed to open login page: %w", err))
	}
	if err := nav.WaitLoad(); err != nil {
		return newError(NavigationTimeout, target, fmt.Errorf("login page did not load: %w", err))
	}

	fields := page.Timeout(rf.login.ElementTimeout)
	defer fields.CancelTimeout()

	userField, err := fields.Element(fieldSelector(rf.login.UsernameField))
	if err != nil {
		return newError(AuthElementNotFound, target, fmt.Errorf("username field %q: %w", rf.login.UsernameField, err))
	}
	passField, err := fields.Element(fieldSelector(rf.login.PasswordField))
	if err != nil {
		return newError(AuthElementNotFound, target, fmt.Errorf("password field %q: %w", rf.login.PasswordField, err))
	}

	if err := userField.Input(creds.Username); err != nil {
		return newError(AuthElementNotFound, target, fmt.Errorf("failed to fill username: %w", err))
	}
	if err := passField.Input(creds.Password); err != nil {
		return newError(AuthElementNotFound, target, fmt.Errorf("failed to fill password: %w", err))
	}

	wait := page.Timeout(rf.login.LoginTimeout)
	defer wait.CancelTimeout()

	navigated := wait.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := passField.Type(input.Enter); err != nil {
		return newError(LoginRejected, target, fmt.Errorf("failed to submit login form: %w", err))
	}
	navigated()

	return rf.awaitLogin(wait, target)
}

// awaitLogin polls until the login is confirmed or the page deadline passes
func (rf *RodFetcher) awaitLogin(page *rod.Page, target string) error {
	if rf.login.SuccessSelector != "" {
		if _, err := page.Element(rf.login.SuccessSelector); err != nil {
			return newError(LoginRejected, target, fmt.Errorf("post-login marker %q not found: %w", rf.login.SuccessSelector, err))
		}
		return nil
	}

	ctx := page.GetContext()
	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()

	for {
		info, err := page.Info()
		if err == nil && !sameDocument(info.URL, rf.login.URL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return newError(LoginRejected, target, errors.New("still on the login page"))
		case <-ticker.C:
		}
	}
}

// loadTarget navigates to the target and reads its markup once the page is stable
func (rf *RodFetcher) loadTarget(page *rod.Page, target string) (string, error) {
	p := page.Timeout(rf.login.PageTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(target); err != nil {
		return "", newError(NetworkFailure, target, fmt.Errorf("failed to navigate: %w", err))
	}
	if err := p.WaitLoad(); err != nil {
		return "", newError(NavigationTimeout, target, fmt.Errorf("page did not load: %w", err))
	}
	if rf.login.Settle > 0 {
		if err := p.WaitStable(rf.login.Settle); err != nil {
			return "", newError(NavigationTimeout, target, fmt.Errorf("page did not stabilize: %w", err))
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", newError(NavigationTimeout, target, fmt.Errorf("failed to get HTML: %w", err))
	}
	return html, nil
}

// launchBrowser starts a browser and returns it with a teardown func that
// closes it and kills the process.
func launchBrowser(ctx context.Context, cfg config.BrowserConfig) (*rod.Browser, func(), error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("disable-blink-features", "AutomationControlled")

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create browser data dir %s: %w", cfg.DataDir, err)
		}
		l = l.UserDataDir(cfg.DataDir)
	}
	if bin := browserBin(cfg.Bin); bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// Only the launcher's own temp profile is removed; a configured data dir is left alone
	cleanup := func() {
		l.Kill()
		if cfg.DataDir == "" {
			l.Cleanup()
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	teardown := func() {
		if err := browser.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
		cleanup()
		log.Debug().Msg("Browser closed")
	}
	return browser, teardown, nil
}

// browserBin prefers the configured binary, then a system Chrome/Chromium.
// An empty result lets rod download its own Chromium.
func browserBin(configured string) string {
	if configured != "" {
		return configured
	}
	if path, found := launcher.LookPath(); found {
		return path
	}
	return ""
}

// fieldSelector addresses a form field by its name attribute
func fieldSelector(name string) string {
	return `[name="` + strings.ReplaceAll(name, `"`, `\"`) + `"]`
}

// sameDocument compares two URLs ignoring query, fragment and a trailing slash
func sameDocument(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return strings.EqualFold(ua.Host, ub.Host) &&
		strings.TrimSuffix(ua.Path, "/") == strings.TrimSuffix(ub.Path, "/")
}
