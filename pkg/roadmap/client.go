package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrUserExists is returned by CreateUser when the username is taken.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned when a username, password or project
	// id does not match the stored record.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminNotInitialised is returned when no administrator record exists.
	ErrAdminNotInitialised = errors.New("admin not initialised")

	// ErrNotFound reports a missing roadmap. It is redis.Nil, so IsNotFound
	// holds for every backend that returns it.
	ErrNotFound error = redis.Nil
)

// Client provides Redis operations for roadmap aggregates and credential
// records. The client is thread-safe and can be used concurrently from
// multiple goroutines.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new roadmap client.
// Returns an error if redisOpts is nil.
func NewClient(redisOpts *redis.Options) (*Client, error) {
	if redisOpts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}

	return &Client{
		rdb: redis.NewClient(redisOpts),
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client for it.
func NewClientFromURL(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewClient(opts)
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetRoadmapJSON returns the stored aggregate document exactly as written.
// Returns (nil, redis.Nil) if the project has no roadmap yet.
func (c *Client) GetRoadmapJSON(ctx context.Context, projectID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, RoadmapKey(projectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read roadmap from Redis: %w", err)
	}
	return data, nil
}

// SaveRoadmapJSON stores an aggregate document under the project key,
// replacing any previous version, and publishes it on the project's event
// channel. The document must be valid JSON.
func (c *Client) SaveRoadmapJSON(ctx context.Context, projectID string, doc []byte) error {
	if projectID == "" {
		return fmt.Errorf("project id cannot be empty")
	}
	if !json.Valid(doc) {
		return fmt.Errorf("roadmap document is not valid JSON")
	}

	if err := c.rdb.Set(ctx, RoadmapKey(projectID), doc, 0).Err(); err != nil {
		return fmt.Errorf("failed to write roadmap to Redis: %w", err)
	}

	channel := RoadmapEventsChannel(projectID)
	if err := c.rdb.Publish(ctx, channel, doc).Err(); err != nil {
		return fmt.Errorf("failed to publish roadmap event: %w", err)
	}

	return nil
}

// GetRoadmap retrieves and decodes a project's aggregate.
// Returns (nil, redis.Nil) if it doesn't exist. A stored JSON null is also
// reported as not found.
func (c *Client) GetRoadmap(ctx context.Context, projectID string) (*Roadmap, error) {
	data, err := c.GetRoadmapJSON(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var r *Roadmap
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to deserialize roadmap: %w", err)
	}
	if r == nil {
		return nil, redis.Nil
	}
	return r, nil
}

// SaveRoadmap encodes and stores a project's aggregate (full upsert).
func (c *Client) SaveRoadmap(ctx context.Context, projectID string, r *Roadmap) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize roadmap: %w", err)
	}
	return c.SaveRoadmapJSON(ctx, projectID, data)
}

// CreateUser stores a new credential record and adds the user to the
// project's member set. Returns ErrUserExists if the username is taken.
func (c *Client) CreateUser(ctx context.Context, u *User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	created, err := c.rdb.SetNX(ctx, UserKey(u.Username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to write user to Redis: %w", err)
	}
	if !created {
		return ErrUserExists
	}

	if err := c.rdb.SAdd(ctx, ProjectUsersKey(u.ProjectID), u.Username).Err(); err != nil {
		return fmt.Errorf("failed to add user to project: %w", err)
	}
	return nil
}

// PutUser writes a credential record unconditionally, replacing any
// existing one, and records project membership. Used by setup.
func (c *Client) PutUser(ctx context.Context, u *User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, UserKey(u.Username), data, 0)
		pipe.SAdd(ctx, ProjectUsersKey(u.ProjectID), u.Username)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write user to Redis: %w", err)
	}
	return nil
}

// GetUser retrieves a credential record.
// Returns (nil, redis.Nil) if the user doesn't exist.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	data, err := c.rdb.Get(ctx, UserKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read user from Redis: %w", err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to deserialize user: %w", err)
	}
	return &u, nil
}

// Authenticate checks a user's password and project membership.
// Returns the user without its password, or ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context, username, password, projectID string) (*User, error) {
	u, err := c.GetUser(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.Password != password || u.ProjectID != projectID {
		return nil, ErrInvalidCredentials
	}

	return &User{Username: u.Username, ProjectID: u.ProjectID}, nil
}

// ProjectMembers returns the usernames registered for a project, sorted.
// Returns an empty slice for unknown projects.
func (c *Client) ProjectMembers(ctx context.Context, projectID string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, ProjectUsersKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read project members: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

// SetAdminCredentials replaces the administrator record.
func (c *Client) SetAdminCredentials(ctx context.Context, admin *AdminCredentials) error {
	if admin.Username == "" || admin.Password == "" {
		return fmt.Errorf("admin username and password are required")
	}

	data, err := json.Marshal(admin)
	if err != nil {
		return fmt.Errorf("failed to serialize admin credentials: %w", err)
	}

	if err := c.rdb.Set(ctx, AdminCredentialsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write admin credentials: %w", err)
	}
	return nil
}

// AuthenticateAdmin checks administrator credentials.
// Returns ErrAdminNotInitialised before setup has run, ErrInvalidCredentials
// on mismatch.
func (c *Client) AuthenticateAdmin(ctx context.Context, username, password string) error {
	data, err := c.rdb.Get(ctx, AdminCredentialsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrAdminNotInitialised
		}
		return fmt.Errorf("failed to read admin credentials: %w", err)
	}

	var admin AdminCredentials
	if err := json.Unmarshal(data, &admin); err != nil {
		return fmt.Errorf("failed to deserialize admin credentials: %w", err)
	}

	if admin.Username != username || admin.Password != password {
		return ErrInvalidCredentials
	}
	return nil
}

// MigrateLegacyRoadmap copies the single-tenant roadmap document into the
// given project's key. Returns false when there is nothing to migrate.
// The legacy key is left in place.
func (c *Client) MigrateLegacyRoadmap(ctx context.Context, projectID string) (bool, error) {
	data, err := c.rdb.Get(ctx, LegacyRoadmapKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read legacy roadmap: %w", err)
	}

	if err := c.rdb.Set(ctx, RoadmapKey(projectID), data, 0).Err(); err != nil {
		return false, fmt.Errorf("failed to write migrated roadmap: %w", err)
	}
	return true, nil
}

// SetupResult reports what Setup did.
type SetupResult struct {
	Migrated    bool
	Admin       string
	DefaultUser string
}

// Setup seeds the administrator record and a default project user, and
// migrates the legacy roadmap into the default user's project.
// Safe to run repeatedly: records are overwritten, not duplicated.
func (c *Client) Setup(ctx context.Context, admin *AdminCredentials, defaultUser *User) (*SetupResult, error) {
	if err := c.SetAdminCredentials(ctx, admin); err != nil {
		return nil, err
	}

	migrated, err := c.MigrateLegacyRoadmap(ctx, defaultUser.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := c.PutUser(ctx, defaultUser); err != nil {
		return nil, err
	}

	return &SetupResult{
		Migrated:    migrated,
		Admin:       admin.Username,
		DefaultUser: defaultUser.Username,
	}, nil
}

// Subscription represents an active Pub/Sub subscription to roadmap events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Roadmap
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of saved aggregates.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Roadmap {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeRoadmapEvents subscribes to saves of a project's roadmap.
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: slow subscribers may miss saves.
func (c *Client) SubscribeRoadmapEvents(ctx context.Context, projectID string) (*Subscription, error) {
	channel := RoadmapEventsChannel(projectID)
	pubsub := c.rdb.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so that no save published
	// after this call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to roadmap events: %w", err)
	}

	eventsChan := make(chan *Roadmap, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var r Roadmap
				if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal roadmap event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &r:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
