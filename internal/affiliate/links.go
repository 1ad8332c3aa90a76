// Package affiliate builds outbound SeatGeek and StubHub search links with
// partner tracking codes, and picks a primary provider per visitor via stable
// hash bucketing.
package affiliate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type Provider string

const (
	ProviderSeatGeek Provider = "seatGeek"
	ProviderStubHub  Provider = "stubHub"
	// ProviderAuto lets the bucketing decide.
	ProviderAuto Provider = "auto"
)

var ErrNoProviders = errors.New("affiliate: no providers configured")

func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ProviderAuto, nil
	case "seatgeek":
		return ProviderSeatGeek, nil
	case "stubhub":
		return ProviderStubHub, nil
	default:
		return "", fmt.Errorf("affiliate: unknown provider %q", s)
	}
}

type Link struct {
	Provider Provider `json:"provider"`
	Label    string   `json:"label"`
	URL      string   `json:"url"`
	Bucket   string   `json:"experiment_bucket"`
}

type SearchRequest struct {
	EventName    string
	Location     string
	Date         string
	Provider     Provider
	GroupSize    int
	MaxRows      int
	ExperimentID string
}

type SearchResult struct {
	Provider  Provider `json:"provider"`
	Bucket    string   `json:"experiment_bucket"`
	GroupSize int      `json:"group_size"`
	MaxRows   int      `json:"max_rows"`
	EventName string   `json:"event_name"`
	Location  string   `json:"location,omitempty"`
	Date      string   `json:"date,omitempty"`
	Links     []Link   `json:"links"`
}

type LinkBuilder struct {
	seatGeekBase string
	seatGeekCode string
	stubHubBase  string
	stubHubCode  string
	forced       Provider
}

// NewLinkBuilder wires both provider endpoints. forcedProvider (from config)
// pins the auto choice to one side when set; pass "" to leave bucketing on.
func NewLinkBuilder(seatGeekBase, seatGeekCode, stubHubBase, stubHubCode, forcedProvider string) *LinkBuilder {
	forced, err := ParseProvider(forcedProvider)
	if err != nil || forced == ProviderAuto {
		forced = ""
	}
	return &LinkBuilder{
		seatGeekBase: strings.TrimRight(seatGeekBase, "/"),
		seatGeekCode: strings.TrimSpace(seatGeekCode),
		stubHubBase:  strings.TrimRight(stubHubBase, "/"),
		stubHubCode:  strings.TrimSpace(stubHubCode),
		forced:       forced,
	}
}

// Search builds links for both providers and flags the one chosen for this
// visitor as primary. Both links always come back so the page can render an
// alternative below the CTA.
func (b *LinkBuilder) Search(req SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.EventName) == "" {
		return nil, errors.New("affiliate: event name required")
	}
	if req.GroupSize < 1 {
		return nil, fmt.Errorf("affiliate: group size must be at least 1, got %d", req.GroupSize)
	}
	if req.MaxRows < 1 {
		return nil, fmt.Errorf("affiliate: max rows must be at least 1, got %d", req.MaxRows)
	}

	chosen := b.choose(req.Provider, req.ExperimentID)

	var links []Link
	if sg := b.seatGeekURL(req); sg != "" {
		links = append(links, Link{
			Provider: ProviderSeatGeek,
			Label:    "View tickets on SeatGeek",
			URL:      sg,
			Bucket:   bucketFlag(chosen == ProviderSeatGeek),
		})
	}
	if sh := b.stubHubURL(req); sh != "" {
		links = append(links, Link{
			Provider: ProviderStubHub,
			Label:    "View tickets on StubHub",
			URL:      sh,
			Bucket:   bucketFlag(chosen == ProviderStubHub),
		})
	}
	if len(links) == 0 {
		return nil, ErrNoProviders
	}

	return &SearchResult{
		Provider:  chosen,
		Bucket:    string(chosen),
		GroupSize: req.GroupSize,
		MaxRows:   req.MaxRows,
		EventName: req.EventName,
		Location:  req.Location,
		Date:      req.Date,
		Links:     links,
	}, nil
}

// choose resolves the provider for one visitor. Explicit choices and the
// config override win; otherwise a sha256 of the experiment id buckets the
// visitor, so the same id always lands on the same side. No experiment id
// defaults to SeatGeek.
func (b *LinkBuilder) choose(userChoice Provider, experimentID string) Provider {
	if userChoice == ProviderSeatGeek || userChoice == ProviderStubHub {
		return userChoice
	}
	if b.forced != "" {
		return b.forced
	}
	if experimentID == "" {
		return ProviderSeatGeek
	}
	digest := sha256.Sum256([]byte(experimentID))
	bucket, _ := strconv.ParseUint(hex.EncodeToString(digest[:])[:4], 16, 32)
	if bucket%2 == 0 {
		return ProviderSeatGeek
	}
	return ProviderStubHub
}

func (b *LinkBuilder) seatGeekURL(req SearchRequest) string {
	if b.seatGeekBase == "" {
		return ""
	}
	params := url.Values{
		"search":     {searchQuery(req)},
		"group_size": {strconv.Itoa(req.GroupSize)},
	}
	if b.seatGeekCode != "" {
		params.Set("aid", b.seatGeekCode)
	}
	return b.seatGeekBase + "/search?" + params.Encode()
}

func (b *LinkBuilder) stubHubURL(req SearchRequest) string {
	if b.stubHubBase == "" {
		return ""
	}
	params := url.Values{
		"q":          {searchQuery(req)},
		"group_size": {strconv.Itoa(req.GroupSize)},
	}
	if b.stubHubCode != "" {
		params.Set("partner_id", b.stubHubCode)
	}
	return b.stubHubBase + "/s/?" + params.Encode()
}

func searchQuery(req SearchRequest) string {
	parts := []string{req.EventName}
	if req.Location != "" {
		parts = append(parts, req.Location)
	}
	if req.Date != "" {
		parts = append(parts, req.Date)
	}
	return strings.Join(parts, " ")
}

func bucketFlag(primary bool) string {
	if primary {
		return "primary"
	}
	return "secondary"
}
