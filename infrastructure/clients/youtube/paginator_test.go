package youtube

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
)

func TestPaginate_FollowsCursorsInOrder(t *testing.T) {
	calls := 0
	next := func(_ context.Context, tok string) (model.Page, error) {
		calls++
		switch tok {
		case "p2":
			return model.Page{ETag: "e2", NextPageToken: "p3"}, nil
		case "p3":
			return model.Page{ETag: "e3"}, nil
		}
		return model.Page{}, errors.New("unexpected cursor " + tok)
	}

	pages, err := Paginate(context.Background(), model.Page{ETag: "e1", NextPageToken: "p2"}, next)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{pages[0].ETag, pages[1].ETag, pages[2].ETag})
}

func TestPaginate_SinglePageMakesNoCalls(t *testing.T) {
	next := func(context.Context, string) (model.Page, error) {
		t.Fatal("no follow-up call expected")
		return model.Page{}, nil
	}
	pages, err := Paginate(context.Background(), model.Page{ETag: "only"}, next)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestPaginate_ErrorDiscardsPartialPages(t *testing.T) {
	boom := apperror.Network("test", nil, "reset")
	next := func(_ context.Context, tok string) (model.Page, error) {
		if tok == "p2" {
			return model.Page{NextPageToken: "p3"}, nil
		}
		return model.Page{}, boom
	}
	pages, err := Paginate(context.Background(), model.Page{NextPageToken: "p2"}, next)
	assert.Nil(t, pages)
	assert.ErrorIs(t, err, boom)
}

func TestPaginate_RepeatedCursorIsError(t *testing.T) {
	next := func(context.Context, string) (model.Page, error) {
		return model.Page{NextPageToken: "loop"}, nil
	}
	_, err := Paginate(context.Background(), model.Page{NextPageToken: "loop"}, next)
	require.Error(t, err)
	assert.Equal(t, apperror.KindNetwork, apperror.KindOf(err))
}

func TestPaginate_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	next := func(context.Context, string) (model.Page, error) {
		calls++
		cancel()
		return model.Page{NextPageToken: "p3"}, nil
	}
	_, err := Paginate(ctx, model.Page{NextPageToken: "p2"}, next)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
