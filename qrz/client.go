// Package qrz implements a minimal client for the QRZ.com XML callsign
// lookup service. A session key obtained at login authenticates all
// subsequent lookups.
package qrz

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production QRZ XML endpoint.
const DefaultBaseURL = "https://xmldata.qrz.com/xml/current/"

const defaultTimeout = 30 * time.Second

// ErrNotFound is returned by Lookup when the API reports no match for the
// requested callsign.
var ErrNotFound = errors.New("callsign not found")

// Fields holds the per-callsign values returned by the API, prior to any
// normalization.
type Fields struct {
	Call           string
	Xref           string
	FirstName      string
	LastName       string
	Address        string
	City           string
	State          string
	Zip            string
	Country        string
	EffectiveDate  string
	ExpirationDate string
	ClassCode      string
	Email          string
}

// Client issues requests against the QRZ XML API. The zero value is not
// usable; construct one with NewClient.
type Client struct {
	baseURL string
	agent   string
	http    *http.Client
}

// NewClient returns a client that identifies itself with the given agent
// string. The agent doubles as the HTTP User-Agent, which QRZ asks
// integrators to set.
func NewClient(agent string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		agent:   agent,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL points the client at a different endpoint. Tests use this with
// an httptest server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

type sessionElem struct {
	Key   string `xml:"Key"`
	Error string `xml:"Error"`
}

type callsignElem struct {
	Call    string `xml:"call"`
	Xref    string `xml:"xref"`
	Fname   string `xml:"fname"`
	Name    string `xml:"name"`
	Addr1   string `xml:"addr1"`
	Addr2   string `xml:"addr2"`
	State   string `xml:"state"`
	Zip     string `xml:"zip"`
	Country string `xml:"country"`
	Efdate  string `xml:"efdate"`
	Expdate string `xml:"expdate"`
	Class   string `xml:"class"`
	Email   string `xml:"email"`
}

type apiResponse struct {
	XMLName  xml.Name      `xml:"QRZDatabase"`
	Session  sessionElem   `xml:"Session"`
	Callsign *callsignElem `xml:"Callsign"`
}

// Login obtains a session key for the given credentials. Invalid
// credentials and transport failures both surface as errors; callers treat
// them as fatal.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	// QRZ separates query parameters with semicolons.
	query := fmt.Sprintf("username=%s;password=%s;agent=%s",
		url.QueryEscape(username), url.QueryEscape(password), url.QueryEscape(c.agent))

	resp, _, err := c.get(ctx, query)
	if err != nil {
		return "", fmt.Errorf("qrz login: %w", err)
	}
	if resp.Session.Error != "" {
		return "", fmt.Errorf("qrz login: %s", resp.Session.Error)
	}
	if resp.Session.Key == "" {
		return "", errors.New("qrz login: response carried no session key")
	}
	return resp.Session.Key, nil
}

// Lookup fetches one callsign. The raw XML body is returned alongside the
// parsed fields so callers can display it verbatim. A "Not found" answer
// from the API maps to ErrNotFound; other failures are ordinary fetch
// errors.
func (c *Client) Lookup(ctx context.Context, sessionKey, callsign string) (Fields, []byte, error) {
	query := fmt.Sprintf("s=%s;callsign=%s",
		url.QueryEscape(sessionKey), url.QueryEscape(callsign))

	resp, raw, err := c.get(ctx, query)
	if err != nil {
		return Fields{}, raw, fmt.Errorf("qrz lookup %s: %w", callsign, err)
	}
	if resp.Session.Error != "" {
		if strings.Contains(resp.Session.Error, "Not found") {
			return Fields{}, raw, fmt.Errorf("qrz lookup %s: %w", callsign, ErrNotFound)
		}
		return Fields{}, raw, fmt.Errorf("qrz lookup %s: %s", callsign, resp.Session.Error)
	}
	if resp.Callsign == nil {
		return Fields{}, raw, fmt.Errorf("qrz lookup %s: response carried no callsign record", callsign)
	}

	cs := resp.Callsign
	return Fields{
		Call:           cs.Call,
		Xref:           cs.Xref,
		FirstName:      cs.Fname,
		LastName:       cs.Name,
		Address:        cs.Addr1,
		City:           cs.Addr2,
		State:          cs.State,
		Zip:            cs.Zip,
		Country:        cs.Country,
		EffectiveDate:  cs.Efdate,
		ExpirationDate: cs.Expdate,
		ClassCode:      cs.Class,
		Email:          cs.Email,
	}, raw, nil
}

func (c *Client) get(ctx context.Context, query string) (*apiResponse, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query, nil)
	if err != nil {
		return nil, nil, err
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var parsed apiResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, body, fmt.Errorf("malformed response: %w", err)
	}
	return &parsed, body, nil
}
