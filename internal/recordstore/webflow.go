package recordstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"formgateway/internal/model"
)

const webflowPageLimit = 100

// WebflowStore keeps submissions as items of a Webflow CMS collection.
type WebflowStore struct {
	client       *apiClient
	baseURL      string
	collectionID string
	now          func() time.Time
}

type WebflowOptions struct {
	BaseURL      string
	Token        string
	CollectionID string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

func NewWebflowStore(opts WebflowOptions) *WebflowStore {
	return &WebflowStore{
		client:       newAPIClient(opts.HTTPClient, "webflow", opts.Token, opts.Timeout),
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		collectionID: opts.CollectionID,
		now:          time.Now,
	}
}

type webflowFieldData struct {
	Name    string `json:"name"`
	Slug    string `json:"slug,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type webflowItemPayload struct {
	IsArchived bool             `json:"isArchived"`
	IsDraft    bool             `json:"isDraft"`
	FieldData  webflowFieldData `json:"fieldData"`
}

type webflowItem struct {
	ID        string           `json:"id"`
	CreatedOn time.Time        `json:"createdOn"`
	FieldData webflowFieldData `json:"fieldData"`
}

type webflowPagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type webflowListResponse struct {
	Items      []webflowItem     `json:"items"`
	Pagination webflowPagination `json:"pagination"`
}

func (i webflowItem) record() model.Record {
	return model.Record{
		ID: i.ID,
		Fields: model.Fields{
			Name:    i.FieldData.Name,
			Email:   i.FieldData.Email,
			Phone:   i.FieldData.Phone,
			Message: i.FieldData.Message,
		},
		CreatedOn: i.CreatedOn,
	}
}

func (s *WebflowStore) itemsURL() string {
	return s.baseURL + "/collections/" + url.PathEscape(s.collectionID) + "/items"
}

// CreateRecord adds a live item. Webflow requires a unique slug per item, so one
// is derived from the creation time.
func (s *WebflowStore) CreateRecord(ctx context.Context, fields model.Fields) (model.Record, error) {
	payload := webflowItemPayload{
		FieldData: webflowFieldData{
			Name:    fields.Name,
			Slug:    fmt.Sprintf("lead-%d", s.now().UnixMilli()),
			Email:   fields.Email,
			Phone:   fields.Phone,
			Message: fields.Message,
		},
	}

	var item webflowItem
	if err := s.client.do(ctx, "create", http.MethodPost, s.itemsURL(), payload, &item); err != nil {
		return model.Record{}, fmt.Errorf("webflow create item: %w", err)
	}
	return item.record(), nil
}

// ListRecords pages through the collection by offset. The API has no email
// filter, so matching happens on each fetched page.
func (s *WebflowStore) ListRecords(ctx context.Context, query Query) *Pager {
	offset := 0
	return NewPager(func(ctx context.Context) ([]model.Record, bool, error) {
		params := url.Values{}
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(webflowPageLimit))

		var resp webflowListResponse
		if err := s.client.do(ctx, "list", http.MethodGet, s.itemsURL()+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, false, fmt.Errorf("webflow list items at offset %d: %w", offset, err)
		}

		records := make([]model.Record, 0, len(resp.Items))
		for _, item := range resp.Items {
			if query.Email != "" && !strings.EqualFold(item.FieldData.Email, query.Email) {
				continue
			}
			records = append(records, item.record())
		}

		offset += len(resp.Items)
		more := len(resp.Items) > 0 && offset < resp.Pagination.Total
		return records, more, nil
	})
}

// UpdateRecord overwrites the four business fields of an item. The slug is left as is.
func (s *WebflowStore) UpdateRecord(ctx context.Context, id string, fields model.Fields) error {
	payload := webflowItemPayload{
		FieldData: webflowFieldData{
			Name:    fields.Name,
			Email:   fields.Email,
			Phone:   fields.Phone,
			Message: fields.Message,
		},
	}

	err := s.client.do(ctx, "update", http.MethodPatch, s.itemsURL()+"/"+url.PathEscape(id), payload, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("webflow update item %s: %w", id, err)
	}
	return nil
}
