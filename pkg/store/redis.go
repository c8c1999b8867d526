package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6379
)

// RedisOptions are the connection parameters accepted by RedisDialer. Keys
// mirror the options understood by the common Redis clients so existing
// backend configuration can be reused unchanged. Timeouts are in seconds.
type RedisOptions struct {
	URL            string  `yaml:"url,omitempty" json:"url,omitempty"`
	Host           string  `yaml:"host,omitempty" json:"host,omitempty"`
	Port           int     `yaml:"port,omitempty" json:"port,omitempty"`
	Path           string  `yaml:"path,omitempty" json:"path,omitempty"`
	Username       string  `yaml:"username,omitempty" json:"username,omitempty"`
	Password       string  `yaml:"password,omitempty" json:"password,omitempty"`
	DB             int     `yaml:"db,omitempty" json:"db,omitempty"`
	Timeout        float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ConnectTimeout float64 `yaml:"connect_timeout,omitempty" json:"connect_timeout,omitempty"`
	ReadTimeout    float64 `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout   float64 `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// Validate rejects option combinations no client could honor.
func (o RedisOptions) Validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("store: port %d out of range", o.Port)
	}
	if o.DB < 0 {
		return fmt.Errorf("store: db must not be negative, got %d", o.DB)
	}
	if o.Timeout < 0 || o.ConnectTimeout < 0 || o.ReadTimeout < 0 || o.WriteTimeout < 0 {
		return fmt.Errorf("store: timeouts must not be negative")
	}
	return nil
}

// ClientOptions converts o into go-redis options. URL wins over Path, which
// wins over Host/Port.
func (o RedisOptions) ClientOptions() (*redis.Options, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	var opts *redis.Options
	switch {
	case o.URL != "":
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("store: parse url: %w", err)
		}
		opts = parsed
	case o.Path != "":
		opts = &redis.Options{Network: "unix", Addr: o.Path}
	default:
		opts = &redis.Options{Network: "tcp", Addr: o.address()}
	}

	if o.URL == "" {
		opts.Username = o.Username
		opts.Password = o.Password
		opts.DB = o.DB
	}
	if o.Timeout > 0 {
		timeout := seconds(o.Timeout)
		opts.DialTimeout = timeout
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
	}
	if o.ConnectTimeout > 0 {
		opts.DialTimeout = seconds(o.ConnectTimeout)
	}
	if o.ReadTimeout > 0 {
		opts.ReadTimeout = seconds(o.ReadTimeout)
	}
	if o.WriteTimeout > 0 {
		opts.WriteTimeout = seconds(o.WriteTimeout)
	}
	return opts, nil
}

// ID renders the server identity used in diagnostics.
func (o RedisOptions) ID() string {
	switch {
	case o.URL != "":
		return o.URL
	case o.Path != "":
		return fmt.Sprintf("unix://%s/%d", o.Path, o.DB)
	default:
		return fmt.Sprintf("redis://%s/%d", o.address(), o.DB)
	}
}

func (o RedisOptions) address() string {
	host := o.Host
	if host == "" {
		host = DefaultHost
	}
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

// RedisDialer returns a Dialer that opens a go-redis client and verifies it
// with PING. An unreachable server yields a ConnectionError.
func RedisDialer(o RedisOptions) Dialer {
	return func(ctx context.Context) (Client, error) {
		opts, err := o.ClientOptions()
		if err != nil {
			return nil, err
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, &ConnectionError{Addr: o.ID(), Err: err}
		}
		return &redisClient{rdb: rdb, id: o.ID()}, nil
	}
}

type redisClient struct {
	rdb *redis.Client
	id  string
}

func (c *redisClient) ID() string {
	return c.id
}

func (c *redisClient) Type(ctx context.Context, key string) (string, error) {
	tag, err := c.rdb.Type(ctx, key).Result()
	return tag, c.wrap(err)
}

func (c *redisClient) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, c.wrap(err)
	}
	return value, true, nil
}

func (c *redisClient) LRange(ctx context.Context, key string) ([]string, error) {
	items, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	return items, c.wrap(err)
}

func (c *redisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	items, err := c.rdb.SMembers(ctx, key).Result()
	return items, c.wrap(err)
}

func (c *redisClient) ZRange(ctx context.Context, key string) ([]string, error) {
	items, err := c.rdb.ZRange(ctx, key, 0, -1).Result()
	return items, c.wrap(err)
}

func (c *redisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	return fields, c.wrap(err)
}

func (c *redisClient) Close() error {
	return c.rdb.Close()
}

// wrap classifies err: replies from the server stay ordinary errors, anything
// at the transport level becomes a ConnectionError.
func (c *redisClient) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		return err
	}
	return &ConnectionError{Addr: c.id, Err: err}
}
