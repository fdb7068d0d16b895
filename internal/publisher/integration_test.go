//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"comore/internal/domain"
	"comore/testdata/utils"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.NoError(err)
	s.NotNil(pub)

	err = pub.Close()
	s.NoError(err)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishArticle() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-create",
		RoutingKey: "test-routing-key-create",
		QueueName:  "test-queue-create",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	now := time.Now().Truncate(time.Millisecond)
	article := &domain.Article{
		ID:          1,
		FeedID:      42,
		Title:       "Test Article",
		URL:         "https://example.com/article",
		Description: utils.Ptr("Test Description"),
		PublishedAt: utils.Ptr(now),
	}

	err = pub.Publish(s.ctx, article)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	var received ArticleMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal("create", received.Action)
	s.Equal(int64(42), received.Article.FeedID)
	s.Equal("Test Article", received.Article.Title)
	s.Equal("https://example.com/article", received.Article.URL)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessageFormat() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-format",
		RoutingKey: "test-routing-key-format",
		QueueName:  "test-queue-format",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	now := time.Now().Truncate(time.Millisecond)
	article := &domain.Article{
		ID:          3,
		FeedID:      7,
		Title:       "Full Article",
		URL:         "https://example.com/full",
		Description: utils.Ptr("Full Description"),
		Content:     utils.Ptr("<p>Full Body</p>"),
		Author:      utils.Ptr("Test Author"),
		OGImageURL:  utils.Ptr("https://example.com/image.jpg"),
		PublishedAt: utils.Ptr(now),
	}

	err = pub.Publish(s.ctx, article)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	s.Equal("application/json", msg.ContentType)

	var received ArticleMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)

	s.Equal("create", received.Action)
	s.Equal(int64(7), received.Article.FeedID)
	s.Equal("Full Article", received.Article.Title)
	s.NotNil(received.Article.Description)
	s.Equal("Full Description", *received.Article.Description)
	s.NotNil(received.Article.Author)
	s.Equal("Test Author", *received.Article.Author)
	s.NotNil(received.Article.OGImageURL)
	s.Equal("https://example.com/image.jpg", *received.Article.OGImageURL)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessagePersistence() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-persist",
		RoutingKey: "test-routing-key-persist",
		QueueName:  "test-queue-persist",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	article := &domain.Article{
		FeedID: 1,
		Title:  "Persistent Article",
		URL:    "https://example.com/persist",
	}

	err = pub.Publish(s.ctx, article)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
