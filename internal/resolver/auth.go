package resolver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"beeb/internal/httputil"
)

// authContext is the identity context the portal expects for TV and
// iPlayer sign-ins.
const authContext = "tvandiplayer"

// idConfig is the identity configuration document served by the idcta
// endpoint. Decoding is separate from fetching so the shape check stands
// on its own.
type idConfig struct {
	SignInURL string `json:"signin_url"`
	Identity  struct {
		CookieAgeDays         int    `json:"cookieAgeDays"`
		AccessTokenCookieName string `json:"accessTokenCookieName"`
		IDSignedInCookieName  string `json:"idSignedInCookieName"`
	} `json:"identity"`
}

// decodeIDConfig parses and validates the idcta config body. Every field
// the sign-in flow relies on must be present.
func decodeIDConfig(body []byte) (*idConfig, error) {
	var cfg idConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("parsing identity config: %w", err)
	}
	if cfg.SignInURL == "" {
		return nil, fmt.Errorf("identity config missing signin_url")
	}
	if err := httputil.ValidateURL(cfg.SignInURL); err != nil {
		return nil, fmt.Errorf("identity config signin_url: %w", err)
	}
	if cfg.Identity.AccessTokenCookieName == "" || cfg.Identity.IDSignedInCookieName == "" {
		return nil, fmt.Errorf("identity config missing cookie names")
	}
	return &cfg, nil
}

// accountLocals is the JSON blob embedded in the sign-in page that carries
// the CSRF nonce and redirect target for the credential POST.
type accountLocals struct {
	UserOrigin string `json:"userOrigin"`
	Nonce      string `json:"nonce"`
	Ptrt       struct {
		Value string `json:"value"`
	} `json:"ptrt"`
}

// authenticate performs the single-shot portal sign-in. On success it
// returns the body of the page the server redirected back to, so the
// caller can reuse it as the already-fetched episode page. Any other
// outcome is an error: there is no retry and no anonymous fallback.
func (r *Resolver) authenticate(targetURL string) (string, error) {
	// The identity config names the sign-in endpoint for this target.
	cfgURL, err := httputil.WithQuery(r.opts.IDConfigURL, url.Values{"ptrt": {targetURL}})
	if err != nil {
		return "", err
	}
	body, err := httputil.GetJSON(r.client, cfgURL)
	if err != nil {
		return "", fmt.Errorf("fetching identity config: %w", err)
	}
	cfg, err := decodeIDConfig(body)
	if err != nil {
		return "", err
	}

	signInPageURL, err := httputil.WithQuery(cfg.SignInURL, url.Values{
		"userOrigin": {authContext},
		"context":    {authContext},
	})
	if err != nil {
		return "", err
	}
	page, _, err := httputil.GetBody(r.client, signInPageURL, "Referer", targetURL)
	if err != nil {
		return "", fmt.Errorf("fetching sign-in page: %w", err)
	}

	blob := findMarker(accountLocalsRe, page)
	if blob == "" {
		return "", fmt.Errorf("could not find the authentication nonce on the sign-in page")
	}
	var locals accountLocals
	if err := json.Unmarshal([]byte(blob), &locals); err != nil {
		return "", fmt.Errorf("parsing account locals: %w", err)
	}

	slog.Debug("submitting credentials", "user", r.opts.Username)
	resBody, finalURL, err := httputil.PostForm(r.client, r.opts.SignInURL,
		url.Values{
			"context":    {locals.UserOrigin},
			"ptrt":       {locals.Ptrt.Value},
			"userOrigin": {locals.UserOrigin},
			"nonce":      {locals.Nonce},
		},
		url.Values{
			"jsEnabled": {"false"},
			"attempts":  {"0"},
			"username":  {r.opts.Username},
			"password":  {r.opts.Password},
		})
	if err != nil {
		return "", fmt.Errorf("posting credentials: %w", err)
	}

	// A successful login redirects back to the page we came from.
	if finalURL != targetURL {
		return "", fmt.Errorf("sign-in did not redirect back to %s, check your username and password", targetURL)
	}
	return resBody, nil
}
