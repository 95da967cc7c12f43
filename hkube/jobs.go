package hkube

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/mcpcli/local"
)

// DefaultSearchFields is the projection requested when the caller does not
// override it.
var DefaultSearchFields = map[string]bool{
	"jobId":               true,
	"userPipeline.name":   true,
	"pipeline.startTime":  true,
	"pipeline.priority":   true,
	"pipeline.tags":       true,
	"pipeline.types":      true,
	"status.data.details": true,
	"result.timeTook":     true,
	"graph":               true,
}

// DatesRange bounds a job search. Values are RFC 3339 timestamps.
type DatesRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SearchJobsArgs are the job search filters. Empty filters are omitted from
// the query.
type SearchJobsArgs struct {
	ExperimentName string          `json:"experiment_name,omitempty"`
	PipelineName   string          `json:"pipeline_name,omitempty"`
	PipelineType   string          `json:"pipeline_type,omitempty"`
	AlgorithmName  string          `json:"algorithm_name,omitempty"`
	PipelineStatus string          `json:"pipeline_status,omitempty"`
	Tags           string          `json:"tags,omitempty"`
	DatesRange     *DatesRange     `json:"dates_range,omitempty" jsonschema:"description=Defaults to the last 24 hours"`
	Fields         map[string]bool `json:"fields,omitempty" jsonschema:"description=Merged over the default projection"`
	Sort           string          `json:"sort,omitempty" jsonschema:"enum=asc,enum=desc"`
	PageNum        int             `json:"page_num,omitempty" jsonschema:"minimum=1"`
	Limit          int             `json:"limit,omitempty" jsonschema:"minimum=1"`
}

type searchQuery struct {
	DatesRange     DatesRange `json:"datesRange"`
	ExperimentName string     `json:"experimentName,omitempty"`
	PipelineName   string     `json:"pipelineName,omitempty"`
	PipelineType   string     `json:"pipelineType,omitempty"`
	AlgorithmName  string     `json:"algorithmName,omitempty"`
	PipelineStatus string     `json:"pipelineStatus,omitempty"`
	Tags           string     `json:"tags,omitempty"`
}

type searchRequest struct {
	Query   searchQuery     `json:"query"`
	Sort    string          `json:"sort"`
	PageNum int             `json:"pageNum"`
	Limit   int             `json:"limit"`
	Fields  map[string]bool `json:"fields"`
}

// SearchJobs queries the exec search API.
func (m *Module) SearchJobs(_ context.Context, in SearchJobsArgs) *local.Future[any] {
	req := m.searchRequest(in)
	return local.Suspend(func(ctx context.Context) (any, error) {
		suffix := ""
		if endpoint, err := m.cfg.Endpoint(KeyExec); err == nil {
			suffix = searchSuffix(endpoint)
		}
		return m.do(ctx, http.MethodPost, KeyExec, suffix, req)
	})
}

func (m *Module) searchRequest(in SearchJobsArgs) searchRequest {
	dates := in.DatesRange
	if dates == nil {
		now := m.now().UTC()
		dates = &DatesRange{
			From: now.Add(-24 * time.Hour).Format(time.RFC3339),
			To:   now.Format(time.RFC3339),
		}
	}
	fields := maps.Clone(DefaultSearchFields)
	maps.Copy(fields, in.Fields)

	req := searchRequest{
		Query: searchQuery{
			DatesRange:     *dates,
			ExperimentName: in.ExperimentName,
			PipelineName:   in.PipelineName,
			PipelineType:   in.PipelineType,
			AlgorithmName:  in.AlgorithmName,
			PipelineStatus: in.PipelineStatus,
			Tags:           in.Tags,
		},
		Sort:    in.Sort,
		PageNum: in.PageNum,
		Limit:   in.Limit,
		Fields:  fields,
	}
	if req.Sort == "" {
		req.Sort = "desc"
	}
	if req.PageNum == 0 {
		req.PageNum = 1
	}
	if req.Limit == 0 {
		req.Limit = 10
	}
	return req
}

// searchSuffix returns what to append to the exec endpoint to reach the
// search route.
func searchSuffix(endpoint string) string {
	switch {
	case strings.HasSuffix(endpoint, "/search"):
		return ""
	case strings.HasSuffix(endpoint, "/"):
		return "search"
	default:
		return "/search"
	}
}
