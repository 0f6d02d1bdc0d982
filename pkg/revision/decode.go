package revision

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/query_revisions.json
var responseSchemaJSON []byte

// maxSchemaErrors caps how many schema violations are quoted in an error.
const maxSchemaErrors = 3

// ErrAPI is returned when the wiki answers with an API-level error object.
var ErrAPI = errors.New("mediawiki api error")

var (
	responseSchema     *gojsonschema.Schema
	responseSchemaOnce sync.Once
	errResponseSchema  error
)

func getResponseSchema() (*gojsonschema.Schema, error) {
	responseSchemaOnce.Do(func() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(responseSchemaJSON))
		if err != nil {
			errResponseSchema = fmt.Errorf("compile response schema: %w", err)

			return
		}

		responseSchema = schema
	})

	return responseSchema, errResponseSchema
}

type apiResponse struct {
	Continue json.RawMessage `json:"continue"`
	Error    *apiError       `json:"error"`
	Query    apiQuery        `json:"query"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type apiQuery struct {
	PageIDs []string           `json:"pageids"`
	Pages   map[string]apiPage `json:"pages"`
}

// Flags such as missing, invalid and userhidden are empty strings in
// formatversion=1 and booleans in formatversion=2; presence is what matters.
type apiPage struct {
	PageID    int             `json:"pageid"`
	Title     string          `json:"title"`
	Missing   json.RawMessage `json:"missing"`
	Invalid   json.RawMessage `json:"invalid"`
	Revisions []apiRevision   `json:"revisions"`
}

type apiRevision struct {
	User       string          `json:"user"`
	UserHidden json.RawMessage `json:"userhidden"`
	Size       int             `json:"size"`
	Timestamp  string          `json:"timestamp"`
}

// Decode reads a query+revisions API response and normalizes it.
// An unknown or invalid page yields NotFound, not an error.
func Decode(r io.Reader) (ArticleRevisionSet, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return ArticleRevisionSet{}, fmt.Errorf("read response: %w", err)
	}

	return DecodeBytes(body)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(body []byte) (ArticleRevisionSet, error) {
	var resp apiResponse

	err := json.Unmarshal(body, &resp)
	if err != nil {
		return ArticleRevisionSet{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	if resp.Error != nil {
		return ArticleRevisionSet{}, fmt.Errorf("%w: %s: %s", ErrAPI, resp.Error.Code, resp.Error.Info)
	}

	err = validateResponse(body)
	if err != nil {
		return ArticleRevisionSet{}, err
	}

	return normalize(resp)
}

func validateResponse(body []byte) error {
	schema, err := getResponseSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	if result.Valid() {
		return nil
	}

	violations := result.Errors()
	msgs := make([]string, 0, maxSchemaErrors)

	for i, v := range violations {
		if i == maxSchemaErrors {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(violations)-maxSchemaErrors))

			break
		}

		msgs = append(msgs, v.String())
	}

	return fmt.Errorf("%w: %s", ErrMalformedInput, strings.Join(msgs, "; "))
}

func normalize(resp apiResponse) (ArticleRevisionSet, error) {
	id := resp.Query.PageIDs[0]

	page, ok := resp.Query.Pages[id]
	if !ok || strings.HasPrefix(id, "-") || len(page.Missing) > 0 || len(page.Invalid) > 0 || page.PageID < 0 {
		return NotFound(), nil
	}

	records := make([]Record, 0, len(page.Revisions))

	for i, rev := range page.Revisions {
		user := rev.User
		if len(rev.UserHidden) > 0 && user == "" {
			user = HiddenUser
		}

		rec, err := NewRecord(user, rev.Size, rev.Timestamp)
		if err != nil {
			return ArticleRevisionSet{}, fmt.Errorf("revision %d: %w", i, err)
		}

		records = append(records, rec)
	}

	return ArticleRevisionSet{
		Title:     page.Title,
		PageID:    page.PageID,
		Revisions: records,
		Truncated: len(resp.Continue) > 0 && string(resp.Continue) != "null",
	}, nil
}
