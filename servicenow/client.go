// Package servicenow fetches agreement records and their attachments from a
// ServiceNow instance. Only the fields the validator surfaces are decoded;
// ServiceNow returns every field either as a plain string or as a
// {display_value, value} object depending on query parameters, so field
// decoding accepts both.
package servicenow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	recordTable    = "u_project_validator"
	defaultTimeout = 30 * time.Second

	maxErrorBodyChars = 500
)

var (
	// ErrRecordNotFound means no record matched the request number.
	ErrRecordNotFound = errors.New("servicenow: record not found")
	// ErrNoAttachment means the record carries no attachment to validate.
	ErrNoAttachment = errors.New("servicenow: no attachment found")
)

// Client talks to one ServiceNow instance with basic auth.
type Client struct {
	instance string
	username string
	password string
	hc       *http.Client
}

// New creates a Client for the given instance URL.
func New(instance, username, password string) *Client {
	return &Client{
		instance: strings.TrimRight(instance, "/"),
		username: username,
		password: password,
		hc:       &http.Client{Timeout: defaultTimeout},
	}
}

// Field is a ServiceNow field value: either a bare string or a
// {display_value, value} object. The display value wins when present.
type Field string

// UnmarshalJSON accepts both field encodings.
func (f *Field) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = Field(s)
		return nil
	}
	var obj struct {
		DisplayValue string `json:"display_value"`
		Value        string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decoding field: %w", err)
	}
	if obj.DisplayValue != "" {
		*f = Field(obj.DisplayValue)
	} else {
		*f = Field(obj.Value)
	}
	return nil
}

// Record is the project-validator record for one agreement request.
// Requester identities are deliberately not decoded; reports must not carry
// personal data.
type Record struct {
	SysID                           Field `json:"sys_id"`
	Number                          Field `json:"u_number"`
	PRRequestorNumber               Field `json:"u_pr_requestor_number"`
	PRStartDate                     Field `json:"u_pr_start_date"`
	SupplierID                      Field `json:"u_supplier_id"`
	FieldglassChecklistID           Field `json:"u_fieldglass_checklist_id"`
	FieldglassChecklistApprovalDate Field `json:"u_fieldglass_checklist_approval_date"`
	RemunerationDetails             Field `json:"u_remuneration_details"`
}

// Attachment is one downloaded agreement document.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// GetRecord looks up the record whose u_number equals requestNumber.
func (c *Client) GetRecord(ctx context.Context, requestNumber string) (*Record, error) {
	endpoint := fmt.Sprintf(
		"%s/api/now/table/%s?sysparm_query=u_number=%s&sysparm_limit=1&sysparm_display_value=all",
		c.instance, recordTable, url.QueryEscape(requestNumber))

	var payload struct {
		Result []Record `json:"result"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, requestNumber)
	}
	return &payload.Result[0], nil
}

// DownloadAttachment fetches the first attachment of the given record.
func (c *Client) DownloadAttachment(ctx context.Context, recordSysID string) (*Attachment, error) {
	endpoint := fmt.Sprintf(
		"%s/api/now/attachment?sysparm_query=table_sys_id=%s&sysparm_limit=1",
		c.instance, url.QueryEscape(recordSysID))

	var payload struct {
		Result []struct {
			FileName     string `json:"file_name"`
			ContentType  string `json:"content_type"`
			DownloadLink string `json:"download_link"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Result) == 0 {
		return nil, ErrNoAttachment
	}
	meta := payload.Result[0]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.DownloadLink, nil)
	if err != nil {
		return nil, fmt.Errorf("servicenow: creating download request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("servicenow: downloading attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("servicenow: attachment download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("servicenow: reading attachment: %w", err)
	}

	return &Attachment{
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Data:        data,
	}, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("servicenow: creating request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("servicenow: calling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyChars))
		return fmt.Errorf("servicenow: API returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("servicenow: decoding response: %w", err)
	}
	return nil
}
