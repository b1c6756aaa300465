package graph

import (
	"context"

	"go.uber.org/zap"

	"libraryapi/internal/entity"
	"libraryapi/internal/pubsub"
)

// BookAdded streams every book created after the subscription starts. Each
// event resolves bookCount with its own loader, since the subscription
// context lives far longer than a single request.
func (r *Resolver) BookAdded(ctx context.Context) (<-chan *bookResolver, error) {
	events, err := r.bus.Subscribe(ctx, pubsub.TopicBookAdded)
	if err != nil {
		return nil, err
	}

	out := make(chan *bookResolver)
	go func() {
		defer close(out)
		for payload := range events {
			book, ok := payload.(entity.Book)
			if !ok {
				r.logger.Warn("unexpected bookAdded payload", zap.Any("payload", payload))
				continue
			}
			select {
			case out <- newBookResolver(book, r.NewBookCountLoader(), nil):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
