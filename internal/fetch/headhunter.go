package fetch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/profile-featurizer/internal/temporal"
)

const (
	hhAPIURL          = "https://api.hh.ru"
	hhUserAgent       = "spigell/profile-featurizer (spigelly@gmail.com)"
	hhContentType     = "application/json"
	hhContentEncoding = "gzip, deflate, br"
	hhDateLayout      = "2006-01-02"
	hhMonthLayout     = "Jan 2006"
)

// HeadHunter fetches resumes from the HeadHunter API and reshapes them into
// the profile record layout.
type HeadHunter struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func NewHeadHunter(logger *zap.Logger, token string) *HeadHunter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeadHunter{
		token:  token,
		APIURL: hhAPIURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: hhUserAgent,
	}
}

type hhResume struct {
	ID         string
	Title      string
	Experience []struct {
		Company  string
		Position string
		Start    string
		End      string
	}
	Education struct {
		Primary []struct {
			Name         string
			Organization string
		}
	}
}

// Fetch accepts a resume id or a resume URL such as https://hh.ru/resume/<id>.
func (h *HeadHunter) Fetch(ctx context.Context, id string) (any, error) {
	resumeID := resumeIDFrom(id)
	if resumeID == "" {
		return nil, fmt.Errorf("resume id is required")
	}

	var raw map[string]any
	if err := h.getJSON(ctx, fmt.Sprintf("%s/resumes/%s", h.APIURL, resumeID), nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	var resume hhResume
	if err := mapstructure.Decode(raw, &resume); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}

	h.logger.Debug("got resume from HH.ru",
		zap.String("resume_id", resume.ID),
		zap.Int("experience", len(resume.Experience)),
		zap.Int("education", len(resume.Education.Primary)),
	)

	return resume.profile(), nil
}

// profile lays the resume out the way crawled profiles are: a headline,
// positions with a date range and educations.
func (r hhResume) profile() map[string]any {
	positions := make([]any, 0, len(r.Experience))
	for _, e := range r.Experience {
		positions = append(positions, map[string]any{
			"companyName": e.Company,
			"title":       e.Position,
			"date1":       hhRange(e.Start, e.End),
		})
	}

	educations := make([]any, 0, len(r.Education.Primary))
	for _, e := range r.Education.Primary {
		title := e.Name
		if e.Organization != "" {
			title = strings.TrimSpace(title + " " + e.Organization)
		}
		educations = append(educations, map[string]any{"title": title})
	}

	return map[string]any{
		"profile":    map[string]any{"headline": r.Title},
		"positions":  positions,
		"educations": educations,
	}
}

func hhRange(start, end string) string {
	from, err := time.Parse(hhDateLayout, start)
	if err != nil {
		return ""
	}
	to := temporal.Present
	if end != "" {
		t, err := time.Parse(hhDateLayout, end)
		if err != nil {
			return ""
		}
		to = t.Format(hhMonthLayout)
	}
	return from.Format(hhMonthLayout) + " – " + to
}

func resumeIDFrom(id string) string {
	id = strings.TrimSpace(id)
	if u, err := url.Parse(id); err == nil && u.Host != "" {
		id = u.Path
	}
	id = strings.Trim(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

func (h *HeadHunter) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", h.token))
	req.Header.Set("User-Agent", h.UserAgent)
	req.Header.Set("Accept-Encoding", hhContentEncoding)

	return req
}

func (h *HeadHunter) getJSON(ctx context.Context, url string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req = h.setHeaders(req)
	req.Header.Set("Content-Type", hhContentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	h.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
