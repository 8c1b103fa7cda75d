package oauthcallback

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

// ErrUnrecognized is returned by ParsePasted when the text holds no token.
var ErrUnrecognized = errors.New("not a token or callback URL")

// ParsePasted turns what a user copied out of the browser into a Result.
// Backends that ignore the listener's redirect URI end the flow on their own
// page, so the user may paste:
//
//   - the callback URL, e.g. http://localhost:3000/auth/callback?token=…
//   - the JSON body {"redirect_url": "…?token=…"} or {"access_token": "…"}
//   - the bare token
func ParsePasted(s string) (Result, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Result{}, ErrUnrecognized
	}

	if strings.HasPrefix(s, "{") {
		var body struct {
			RedirectURL string `json:"redirect_url"`
			AccessToken string `json:"access_token"`
			Token       string `json:"token"`
			Error       string `json:"error"`
			Detail      string `json:"detail"`
		}
		if err := json.Unmarshal([]byte(s), &body); err != nil {
			return Result{}, ErrUnrecognized
		}
		switch {
		case body.RedirectURL != "":
			s = body.RedirectURL
		case body.AccessToken != "":
			return Result{Token: body.AccessToken}, nil
		case body.Token != "":
			return Result{Token: body.Token}, nil
		case body.Error != "":
			return Result{Error: body.Error}, nil
		case body.Detail != "":
			return Result{Error: body.Detail}, nil
		default:
			return Result{}, ErrUnrecognized
		}
	}

	if strings.Contains(s, "?") || strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return Result{}, ErrUnrecognized
		}
		q := u.Query()
		res := Result{Token: q.Get("token"), Error: q.Get("error")}
		if res.Token == "" && res.Error == "" {
			return Result{}, ErrUnrecognized
		}
		return res, nil
	}

	if strings.ContainsAny(s, " \t\r\n\"'<>") {
		return Result{}, ErrUnrecognized
	}
	return Result{Token: s}, nil
}
