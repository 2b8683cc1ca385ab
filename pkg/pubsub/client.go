// Package pubsub owns the Pub/Sub connection shared by the worker and the
// outbox publisher.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/angelmondragon/orderhub-backend/pkg/config"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errClosed            = errors.New("pubsub client not initialized")
)

type kind string

const (
	kindTopic        kind = "topics"
	kindSubscription kind = "subscriptions"
)

// Resource names a topic or subscription the process depends on. Names may be
// bare IDs or full resource paths.
type Resource struct {
	kind kind
	name string
}

func Topic(name string) Resource        { return Resource{kind: kindTopic, name: name} }
func Subscription(name string) Resource { return Resource{kind: kindSubscription, name: name} }

func (r Resource) String() string { return string(r.kind) + "/" + r.name }

// Client wraps a Pub/Sub v2 client. Publisher handles are created once per
// topic and stopped on Close.
type Client struct {
	client    *pubsub.Client
	projectID string
	required  []Resource

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient connects to the project and checks that every required resource
// exists. Blank names are ignored.
func NewClient(ctx context.Context, gcp config.GCPConfig, logg *logger.Logger, required ...Resource) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	conn, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     conn,
		projectID:  projectID,
		required:   compact(required),
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.verify(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id": projectID,
			"resources":  len(c.required),
		}), "pubsub client initialized")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	default:
		return nil
	}
}

func compact(resources []Resource) []Resource {
	out := make([]Resource, 0, len(resources))
	seen := map[Resource]bool{}
	for _, r := range resources {
		r.name = strings.TrimSpace(r.name)
		if r.name == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func (c *Client) verify(ctx context.Context) error {
	for _, r := range c.required {
		if err := c.lookup(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) lookup(ctx context.Context, r Resource) error {
	path := resourcePath(c.projectID, r)
	var err error
	switch r.kind {
	case kindTopic:
		_, err = c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: path})
	case kindSubscription:
		_, err = c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: path})
	default:
		return fmt.Errorf("unknown pubsub resource %s", r)
	}
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s does not exist", path)
	default:
		return fmt.Errorf("checking %s: %w", path, err)
	}
}

// Subscriber returns a receive handle for a subscription ID or path.
func (c *Client) Subscriber(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	return c.client.Subscriber(resourcePath(c.projectID, Subscription(name)))
}

// Publisher returns the shared publish handle for a topic ID or path.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	path := resourcePath(c.projectID, Topic(name))

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[path]; ok {
		return p
	}
	p := c.client.Publisher(path)
	c.publishers[path] = p
	return p
}

// Ping re-checks the resources required at construction.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClosed
	}
	return c.verify(ctx)
}

// Close flushes pending publishes and releases the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for path, p := range c.publishers {
		p.Stop()
		delete(c.publishers, path)
	}
	c.mu.Unlock()
	return c.client.Close()
}

func resourcePath(projectID string, r Resource) string {
	name := strings.TrimSpace(r.name)
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+string(r.kind)+"/") {
		return name
	}
	return "projects/" + projectID + "/" + string(r.kind) + "/" + name
}
