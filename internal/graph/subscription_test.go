package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/entity"
	"libraryapi/internal/pubsub"
)

const bookAddedSubscription = `subscription {
	bookAdded { title published genres author { name bookCount } }
}`

func subscribe(t *testing.T, env *testEnv) (<-chan interface{}, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ch, err := env.schema.Subscribe(ctx, bookAddedSubscription, "", nil)
	require.NoError(t, err)
	return ch, cancel
}

func nextBookAdded(t *testing.T, ch <-chan interface{}) bookResult {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed")
		resp, ok := v.(*graphql.Response)
		require.True(t, ok)
		require.Empty(t, resp.Errors)

		var data struct {
			BookAdded bookResult `json:"bookAdded"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		return data.BookAdded
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bookAdded")
		return bookResult{}
	}
}

func expectNoEvent(t *testing.T, ch <-chan interface{}) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected event: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscription_BookAddedReachesEverySubscriber(t *testing.T) {
	env := newTestEnv(t)

	first, _ := subscribe(t, env)
	second, _ := subscribe(t, env)

	var before struct {
		BookCount   int `json:"bookCount"`
		AuthorCount int `json:"authorCount"`
	}
	env.exec(t, env.requestContext(nil), `{ bookCount authorCount }`, nil, &before)

	resp := env.exec(t, env.requestContext(&env.user), `mutation {
		addBook(title: "Dune", published: 1965, author: "Frank Herbert", genres: ["scifi"]) { title }
	}`, nil, nil)
	require.Empty(t, resp.Errors)

	for _, ch := range []<-chan interface{}{first, second} {
		got := nextBookAdded(t, ch)
		assert.Equal(t, "Dune", got.Title)
		assert.Equal(t, 1965, got.Published)
		assert.Equal(t, []string{"scifi"}, got.Genres)
		assert.Equal(t, "Frank Herbert", got.Author.Name)
		assert.Equal(t, 1, got.Author.BookCount)
		expectNoEvent(t, ch)
	}

	var after struct {
		BookCount   int `json:"bookCount"`
		AuthorCount int `json:"authorCount"`
	}
	env.exec(t, env.requestContext(nil), `{ bookCount authorCount }`, nil, &after)
	assert.Equal(t, before.BookCount+1, after.BookCount)
	assert.Equal(t, before.AuthorCount+1, after.AuthorCount)
}

func TestSubscription_EachEventGetsFreshBookCount(t *testing.T) {
	env := newTestEnv(t)
	ch, _ := subscribe(t, env)

	for i, title := range []string{"Dune", "Dune Messiah"} {
		resp := env.exec(t, env.requestContext(&env.user), `mutation($title: String!) {
			addBook(title: $title, published: 1969, author: "Frank Herbert", genres: ["scifi"]) { title }
		}`, map[string]interface{}{"title": title}, nil)
		require.Empty(t, resp.Errors)

		got := nextBookAdded(t, ch)
		assert.Equal(t, title, got.Title)
		assert.Equal(t, i+1, got.Author.BookCount)
	}
}

func TestSubscription_NoReplayForLateSubscribers(t *testing.T) {
	env := newTestEnv(t)

	resp := env.exec(t, env.requestContext(&env.user), `mutation {
		addBook(title: "Dune", published: 1965, author: "Frank Herbert", genres: ["scifi"]) { title }
	}`, nil, nil)
	require.Empty(t, resp.Errors)

	late, _ := subscribe(t, env)
	expectNoEvent(t, late)
}

func TestSubscription_BooksAddedBeforeSubscribingAreNotDelivered(t *testing.T) {
	for i := range 10 {
		env := newTestEnv(t)

		for j := range 30 {
			resp := env.exec(t, env.requestContext(&env.user), `mutation($title: String!) {
				addBook(title: $title, published: 1965, author: "Frank Herbert", genres: ["scifi"]) { title }
			}`, map[string]interface{}{"title": fmt.Sprintf("Dune %d-%d", i, j)}, nil)
			require.Empty(t, resp.Errors)
		}

		late, cancel := subscribe(t, env)
		expectNoEvent(t, late)
		cancel()
	}
}

func TestSubscription_FailedMutationPublishesNothing(t *testing.T) {
	env := newTestEnv(t)
	ch, _ := subscribe(t, env)

	resp := env.exec(t, env.requestContext(nil), `mutation {
		addBook(title: "Dune", published: 1965, author: "Frank Herbert", genres: ["scifi"]) { title }
	}`, nil, nil)
	require.NotEmpty(t, resp.Errors)

	resp = env.exec(t, env.requestContext(&env.user), `mutation {
		addBook(title: "Clean Code", published: 2008, author: "Robert Martin", genres: []) { title }
	}`, nil, nil)
	require.NotEmpty(t, resp.Errors)

	expectNoEvent(t, ch)
}

func TestSubscription_CancelStopsDelivery(t *testing.T) {
	env := newTestEnv(t)
	ch, cancel := subscribe(t, env)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed")
	}

	// Publishing after the subscriber left must not block.
	env.bus.Publish(pubsub.TopicBookAdded, entity.Book{Title: "Orphan"})
}

func TestSubscription_IgnoresForeignPayloads(t *testing.T) {
	env := newTestEnv(t)
	ch, _ := subscribe(t, env)

	env.bus.Publish(pubsub.TopicBookAdded, "not a book")
	env.bus.Publish(pubsub.TopicBookAdded, entity.Book{
		Title:     "Direct",
		Published: 2000,
		Genres:    []string{"x"},
		Author:    &entity.Author{Name: "Robert Martin"},
	})

	got := nextBookAdded(t, ch)
	assert.Equal(t, "Direct", got.Title)
	assert.Equal(t, 2, got.Author.BookCount)
}
