package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"owl-hotel/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DirectoryHotel is a hotel record as served by the admin directory API.
type DirectoryHotel struct {
	ID                 flexString `json:"id"`
	Name               string     `json:"name"`
	Organization       flexString `json:"organization"`
	Status             string     `json:"status"`
	AvailableStartDate string     `json:"available_start_date"`
	AvailableEndDate   string     `json:"available_end_date"`
}

type DirectoryBedType struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// flexString accepts JSON strings and numbers; the directory emits
// numeric ids.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// DirectoryClient reads hotel and bed type reference data from the
// admin directory.
type DirectoryClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewDirectoryClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *DirectoryClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &DirectoryClient{httpClient: client, logger: logger}
}

func (c *DirectoryClient) ListHotels(ctx context.Context, organizationID string) ([]DirectoryHotel, error) {
	req := c.httpClient.R().SetContext(ctx)
	if organizationID != "" {
		req.SetQueryParam("organization", organizationID)
	}
	var hotels []DirectoryHotel
	if err := c.getList(req, "/hotels/", &hotels); err != nil {
		return nil, err
	}
	c.logger.Info("Fetched hotels from directory",
		zap.String("organization_id", organizationID),
		zap.Int("count", len(hotels)),
	)
	return hotels, nil
}

func (c *DirectoryClient) ListBedTypes(ctx context.Context) ([]DirectoryBedType, error) {
	var types []DirectoryBedType
	if err := c.getList(c.httpClient.R().SetContext(ctx), "/bed-types/", &types); err != nil {
		return nil, err
	}
	return types, nil
}

// getList decodes either a bare JSON array or a {"results": [...]} page.
func (c *DirectoryClient) getList(req *resty.Request, path string, out any) error {
	resp, err := req.Get(path)
	if err != nil {
		c.logger.Error("Directory API call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call directory %s: %w", path, err)
	}
	if resp.IsError() {
		c.logger.Error("Directory API returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("directory %s returned status %d", path, resp.StatusCode())
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) > 0 && body[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to decode directory %s: %w", path, err)
		}
		body = page.Results
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode directory %s: %w", path, err)
	}
	return nil
}

// DirectorySync copies directory hotels and bed types into local storage.
type DirectorySync struct {
	client         *DirectoryClient
	inventory      InventoryService
	organizationID string
	logger         *zap.Logger
}

func NewDirectorySync(client *DirectoryClient, inventory InventoryService, organizationID string, logger *zap.Logger) *DirectorySync {
	return &DirectorySync{client: client, inventory: inventory, organizationID: organizationID, logger: logger}
}

type SyncResult struct {
	Hotels   int
	BedTypes int
	Skipped  int
}

// Run upserts every record it can; bad records are logged and skipped.
func (s *DirectorySync) Run(ctx context.Context) (*SyncResult, error) {
	res := &SyncResult{}

	types, err := s.client.ListBedTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, bt := range types {
		if bt.Capacity < 1 || domain.NormalizeTypeName(bt.Name) == "" {
			res.Skipped++
			continue
		}
		if _, err := s.inventory.UpsertBedType(ctx, UpsertBedTypeRequest{Name: bt.Name, Capacity: bt.Capacity}); err != nil {
			s.logger.Warn("Skipping bed type", zap.String("name", bt.Name), zap.Error(err))
			res.Skipped++
			continue
		}
		res.BedTypes++
	}

	hotels, err := s.client.ListHotels(ctx, s.organizationID)
	if err != nil {
		return res, err
	}
	for _, h := range hotels {
		req := RegisterHotelRequest{
			HotelID:        string(h.ID),
			OrganizationID: string(h.Organization),
			Name:           h.Name,
			Status:         h.Status,
		}
		if req.OrganizationID == "" {
			req.OrganizationID = s.organizationID
		}
		if req.AvailableFrom, err = optionalDate(h.AvailableStartDate); err == nil {
			req.AvailableTo, err = optionalDate(h.AvailableEndDate)
		}
		if err == nil && req.HotelID != "" {
			_, err = s.inventory.RegisterHotel(ctx, req)
		}
		if err != nil || req.HotelID == "" {
			s.logger.Warn("Skipping directory hotel", zap.String("hotel_id", req.HotelID), zap.Error(err))
			res.Skipped++
			continue
		}
		res.Hotels++
	}

	s.logger.Info("Directory sync finished",
		zap.Int("hotels", res.Hotels),
		zap.Int("bed_types", res.BedTypes),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func optionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	// the directory sometimes sends full timestamps
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
