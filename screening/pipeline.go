package screening

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
)

// Posts is the slice of the forum service the pipeline writes back to.
type Posts interface {
	GetPost(ctx context.Context, postID string) (*forum.Post, error)
	ApplyScreening(ctx context.Context, postID string, score float64, level forum.UrgencyLevel, tags []string, flagged bool) error
}

// Notifier emits best-effort notifications; it never returns an error.
type Notifier interface {
	Notify(ctx context.Context, req notifications.NotifyRequest)
}

type job struct {
	postID  string
	content string
}

// Pipeline runs content screening off the request path: a bounded queue and
// a single worker. Submission never blocks; when the queue is full the job
// is dropped with a warning, since screening is best-effort.
type Pipeline struct {
	classifier Classifier
	posts      Posts
	notifier   Notifier
	jobs       chan job
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

const classifyTimeout = 10 * time.Second

func NewPipeline(classifier Classifier, posts Posts, notifier Notifier, queueSize int) *Pipeline {
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pipeline{
		classifier: classifier,
		posts:      posts,
		notifier:   notifier,
		jobs:       make(chan job, queueSize),
	}

	p.wg.Add(1)

	go p.work()

	return p
}

var _ forum.Screener = (*Pipeline)(nil)

func (p *Pipeline) Submit(postID, content string) {
	select {
	case p.jobs <- job{postID: postID, content: content}:
	default:
		slog.Warn("screening queue full, dropping job", "postId", postID)
	}
}

// Close stops accepting jobs, drains the queue, and waits for the worker.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})

	p.wg.Wait()
}

func (p *Pipeline) work() {
	defer p.wg.Done()

	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pipeline) process(j job) {
	// Jobs outlive the request that submitted them.
	ctx, cancel := context.WithTimeout(context.Background(), classifyTimeout)
	defer cancel()

	result, err := p.classifier.Classify(ctx, j.content)
	if err != nil {
		slog.ErrorContext(ctx, "failed to classify post content", "postId", j.postID, "error", err)
		return
	}

	err = p.posts.ApplyScreening(ctx, j.postID, result.SentimentScore, result.UrgencyLevel, result.Tags, result.Flagged)
	if err != nil {
		slog.ErrorContext(ctx, "failed to apply screening result", "postId", j.postID, "error", err)
		return
	}

	if result.UrgencyLevel != forum.UrgencyCritical {
		return
	}

	post, err := p.posts.GetPost(ctx, j.postID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load post for urgency alert", "postId", j.postID, "error", err)
		return
	}

	p.notifier.Notify(ctx, notifications.NotifyRequest{
		RecipientID: post.AuthorID,
		Type:        notifications.TypeAlert,
		Message:     "Your post was flagged as urgent. Support resources are available.",
		PostID:      &post.ID,
		Priority:    notifications.PriorityUrgent,
	})
}
