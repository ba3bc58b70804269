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

const airtablePageSize = 100

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// AirtableStore keeps submissions as rows of an Airtable table whose columns are
// named name, email, phone and message.
type AirtableStore struct {
	client   *apiClient
	tableURL string
}

type AirtableOptions struct {
	BaseURL    string
	Token      string
	BaseID     string
	Table      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewAirtableStore(opts AirtableOptions) *AirtableStore {
	return &AirtableStore{
		client:   newAPIClient(opts.HTTPClient, "airtable", opts.Token, opts.Timeout),
		tableURL: strings.TrimRight(opts.BaseURL, "/") + "/" + url.PathEscape(opts.BaseID) + "/" + url.PathEscape(opts.Table),
	}
}

type airtablePayload struct {
	Fields model.Fields `json:"fields"`
}

type airtableRecord struct {
	ID          string       `json:"id"`
	CreatedTime time.Time    `json:"createdTime"`
	Fields      model.Fields `json:"fields"`
}

type airtableListResponse struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

func (r airtableRecord) record() model.Record {
	return model.Record{
		ID:        r.ID,
		Fields:    r.Fields,
		CreatedOn: r.CreatedTime,
	}
}

func (s *AirtableStore) CreateRecord(ctx context.Context, fields model.Fields) (model.Record, error) {
	var created airtableRecord
	if err := s.client.do(ctx, "create", http.MethodPost, s.tableURL, airtablePayload{Fields: fields}, &created); err != nil {
		return model.Record{}, fmt.Errorf("airtable create record: %w", err)
	}
	return created.record(), nil
}

// ListRecords follows Airtable's offset cursor until it is no longer returned.
func (s *AirtableStore) ListRecords(ctx context.Context, query Query) *Pager {
	cursor := ""
	return NewPager(func(ctx context.Context) ([]model.Record, bool, error) {
		params := url.Values{}
		params.Set("pageSize", strconv.Itoa(airtablePageSize))
		if query.Email != "" {
			params.Set("filterByFormula", emailFormula(query.Email))
		}
		if cursor != "" {
			params.Set("offset", cursor)
		}

		var resp airtableListResponse
		if err := s.client.do(ctx, "list", http.MethodGet, s.tableURL+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, false, fmt.Errorf("airtable list records: %w", err)
		}

		records := make([]model.Record, 0, len(resp.Records))
		for _, r := range resp.Records {
			records = append(records, r.record())
		}

		cursor = resp.Offset
		return records, cursor != "", nil
	})
}

// UpdateRecord sends all four fields, so empty values clear the stored ones.
func (s *AirtableStore) UpdateRecord(ctx context.Context, id string, fields model.Fields) error {
	err := s.client.do(ctx, "update", http.MethodPatch, s.tableURL+"/"+url.PathEscape(id), airtablePayload{Fields: fields}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("airtable update record %s: %w", id, err)
	}
	return nil
}

func emailFormula(email string) string {
	return fmt.Sprintf("LOWER({email})='%s'", formulaEscaper.Replace(strings.ToLower(email)))
}
