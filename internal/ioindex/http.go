package ioindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/tidwall/gjson"
)

// httpIndex talks to a Solr-compatible select endpoint.
type httpIndex struct {
	base   string
	client *http.Client
}

// NewHTTP creates an index client for a Solr-compatible endpoint.
func NewHTTP(cfg config.IndexConfig) export.Index {
	return &httpIndex{
		base:   strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Query runs one select request.
func (h *httpIndex) Query(
	ctx context.Context,
	q export.IndexQuery,
) (*export.Page, error) {
	body, err := h.get(ctx, selectParams(q))
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// FacetCounts runs a zero-row facet request for one field.
func (h *httpIndex) FacetCounts(
	ctx context.Context,
	query string,
	filters []string,
	field string,
) ([]export.FacetCount, error) {
	page, err := h.Query(ctx, export.IndexQuery{
		Query:   query,
		Filters: filters,
		Facets:  []string{field},
	})
	if err != nil {
		return nil, err
	}
	return page.Facets[field], nil
}

// Close releases idle connections.
func (h *httpIndex) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func selectParams(q export.IndexQuery) url.Values {
	params := url.Values{}
	query := q.Query
	if query == "" {
		query = "*:*"
	}
	params.Set("q", query)
	for _, fq := range q.Filters {
		params.Add("fq", fq)
	}
	if len(q.Fields) > 0 {
		params.Set("fl", strings.Join(q.Fields, ","))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	params.Set("start", strconv.Itoa(q.Offset))
	params.Set("rows", strconv.Itoa(q.Rows))
	if len(q.Facets) > 0 {
		limit := q.FacetLimit
		if limit <= 0 {
			limit = -1
		}
		params.Set("facet", "true")
		params.Set("facet.mincount", "1")
		params.Set("facet.limit", strconv.Itoa(limit))
		for _, f := range q.Facets {
			params.Add("facet.field", f)
		}
	}
	params.Set("wt", "json")
	return params
}

func (h *httpIndex) get(ctx context.Context, params url.Values) ([]byte, error) {
	u := h.base + "/select?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, IndexConnectionError(h.base, err)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Index request", "url", u)
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, export.Transient(IndexConnectionError(h.base, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, export.Transient(IndexConnectionError(h.base, err))
	}

	if resp.StatusCode != http.StatusOK {
		detail := gjson.GetBytes(body, "error.msg").String()
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		err = IndexResponseError(
			resp.StatusCode, detail,
			fmt.Errorf("unexpected status %s", resp.Status),
		)
		switch resp.StatusCode {
		case http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
			http.StatusTooManyRequests:
			return nil, export.Transient(err)
		}
		return nil, err
	}
	return body, nil
}

func decodePage(body []byte) (*export.Page, error) {
	if !gjson.ValidBytes(body) {
		return nil, export.Transient(IndexResponseError(
			http.StatusOK, "malformed JSON",
			fmt.Errorf("cannot decode %d bytes", len(body)),
		))
	}

	root := gjson.ParseBytes(body)
	res := &export.Page{
		TotalFound: int(root.Get("response.numFound").Int()),
	}

	root.Get("response.docs").ForEach(func(_, doc gjson.Result) bool {
		res.Documents = append(res.Documents, decodeDoc(doc))
		return true
	})

	facets := root.Get("facet_counts.facet_fields")
	if facets.Exists() {
		res.Facets = make(map[string][]export.FacetCount)
		facets.ForEach(func(field, vals gjson.Result) bool {
			res.Facets[field.String()] = decodeFacet(vals.Array())
			return true
		})
	}
	return res, nil
}

// decodeFacet converts Solr's flat [value, count, value, count...] list.
func decodeFacet(vals []gjson.Result) []export.FacetCount {
	var res []export.FacetCount
	for i := 0; i+1 < len(vals); i += 2 {
		count := int(vals[i+1].Int())
		if count <= 0 {
			continue
		}
		res = append(res, export.FacetCount{
			Value: vals[i].String(),
			Count: count,
		})
	}
	return res
}

func decodeDoc(doc gjson.Result) export.Document {
	res := make(export.Document)
	doc.ForEach(func(k, v gjson.Result) bool {
		res[k.String()] = decodeValue(v)
		return true
	})
	return res
}

func decodeValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return parseDate(v.String())
	case gjson.Number:
		return v.Num
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Null:
		return nil
	}
	if v.IsArray() {
		var res []any
		for _, e := range v.Array() {
			res = append(res, decodeValue(e))
		}
		return res
	}
	return v.String()
}
