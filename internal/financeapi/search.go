package financeapi

import (
	"context"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type rankedName struct {
	name       string
	similarity float64
}

// rankCompanyNames orders `names` for an autocomplete box: names starting with `keyword`
// (ignoring case) come first in their original order, then the remaining names that are
// similar enough to `keyword`, most similar first.
func rankCompanyNames(names []string, keyword string, limit int) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	var result []string
	var similar []rankedName
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, keyword) {
			result = append(result, name)
			continue
		}
		similarity := matchr.JaroWinkler(lower, keyword, false)
		if similarity >= similarityThreshold {
			similar = append(similar, rankedName{name: name, similarity: similarity})
		}
	}

	slices.SortStableFunc(similar, func(a, b rankedName) int {
		if a.similarity > b.similarity {
			return -1
		}
		if a.similarity < b.similarity {
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	for _, s := range similar {
		result = append(result, s.name)
	}

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// SearchCompanies returns stored company names matching `keyword`.
// A non-positive limit means the default number of suggestions.
func (impl Implementation) SearchCompanies(ctx context.Context, keyword string, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "SearchCompanies", trace.WithAttributes(
		attribute.String("keyword", keyword),
	))
	defer span.End()

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	names, err := impl.qry.ListCompanyNames(ctx)
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "ListCompanyNames")
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list company names")
		return nil, err
	}

	return rankCompanyNames(names, keyword, limit), nil
}
