// Package cookies exports browser cookies to a Netscape cookie file the downloader
// tool can read. Useful for sites which require authentication!
package cookies

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"
	"golang.org/x/net/publicsuffix"
)

// AllBrowsers reads from every cookie store found on the machine.
const AllBrowsers = "all"

const netscapeHeader = "# Netscape HTTP Cookie File\n"

// Exporter writes cookies for a request's domain into a per-domain file.
type Exporter struct {
	browser string
	dir     string
	stores  func() []kooky.CookieStore
}

// NewExporter returns an Exporter reading cookies from browser (or AllBrowsers)
// and writing files into dir.
func NewExporter(browser, dir string) *Exporter {
	return &Exporter{
		browser: strings.ToLower(strings.TrimSpace(browser)),
		dir:     dir,
		stores:  kooky.FindAllCookieStores,
	}
}

// Export writes the valid cookies for rawURL's registrable domain and returns the file
// path. It returns "" when there are no cookies to write, including when rawURL has no
// registrable domain to look cookies up for.
func (e *Exporter) Export(ctx context.Context, rawURL string) (string, error) {
	domain, err := RegistrableDomain(rawURL)
	if err != nil {
		logger.Pl.Warn().Err(err).Str("url", rawURL).Msg("No cookie domain for URL, continuing without cookies")
		return "", nil
	}

	var (
		found     []*kooky.Cookie
		attempted []string
	)
	for _, store := range e.stores() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		browserName := store.Browser()
		if e.browser != AllBrowsers && !strings.EqualFold(browserName, e.browser) {
			store.Close()
			continue
		}
		attempted = append(attempted, browserName)

		cookies, err := store.ReadCookies(kooky.Valid, kooky.DomainHasSuffix(domain))
		store.Close()
		if err != nil {
			logger.Pl.Debug().Err(err).Str("browser", browserName).Msg("Failed to read cookies")
			continue
		}
		found = append(found, cookies...)
	}

	logger.Pl.Info().
		Strs("browsers", attempted).
		Str("domain", domain).
		Int("cookies", len(found)).
		Msg("Read browser cookies")

	if len(found) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(e.dir, consts.PermsCookieDir); err != nil {
		return "", fmt.Errorf("failed to create cookie directory: %w", err)
	}
	path := filepath.Join(e.dir, domain+".txt")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, consts.PermsCookieFile)
	if err != nil {
		return "", fmt.Errorf("failed to open cookie file: %w", err)
	}
	if err := WriteNetscape(f, found); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write cookie file: %w", err)
	}
	return path, nil
}

// RegistrableDomain returns the eTLD+1 of rawURL's host, e.g. "youtube.com" for
// "https://m.youtube.com/watch".
func RegistrableDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", errors.New("url has no host")
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	return publicsuffix.EffectiveTLDPlusOne(host)
}

// WriteNetscape writes cookies in the Netscape cookie file format.
func WriteNetscape(w io.Writer, cookies []*kooky.Cookie) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(netscapeHeader); err != nil {
		return err
	}

	for _, c := range cookies {
		if c == nil || c.Domain == "" {
			continue
		}
		domain := c.Domain
		if c.HttpOnly {
			domain = "#HttpOnly_" + domain
		}
		includeSubdomains := "FALSE"
		if strings.HasPrefix(c.Domain, ".") {
			includeSubdomains = "TRUE"
		}
		cookiePath := c.Path
		if cookiePath == "" {
			cookiePath = "/"
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}

		line := strings.Join([]string{
			domain,
			includeSubdomains,
			cookiePath,
			strings.ToUpper(strconv.FormatBool(c.Secure)),
			strconv.FormatInt(expires, 10),
			c.Name,
			c.Value,
		}, "\t")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
