package youtube

import (
	"context"

	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
)

// NextPageFunc fetches the page addressed by a continuation cursor
type NextPageFunc func(ctx context.Context, pageToken string) (model.Page, error)

// Paginate follows NextPageToken from the first page until the API reports
// no further page. Pages come back in API order. Any failure discards the
// pages collected so far.
func Paginate(ctx context.Context, first model.Page, next NextPageFunc) ([]model.Page, error) {
	const op = "youtube.Paginate"

	pages := []model.Page{first}
	followed := make(map[string]struct{})
	cursor := first.NextPageToken
	for cursor != "" {
		if _, seen := followed[cursor]; seen {
			return nil, apperror.Network(op, nil, "page cursor "+cursor+" repeated")
		}
		followed[cursor] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, apperror.Network(op, err, "pagination cancelled")
		}
		page, err := next(ctx, cursor)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		cursor = page.NextPageToken
	}
	return pages, nil
}
