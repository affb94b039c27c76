package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultPort nat.Port = "5432/tcp"

// PostgresContainer is a started postgres container together with the
// credentials it was created with.
type PostgresContainer struct {
	testcontainers.Container
	user     string
	password string
	dbName   string
}

type (
	Option          func(*containerConfig)
	containerConfig struct {
		image    string
		name     string
		user     string
		password string
		dbName   string
		startup  time.Duration
	}
)

func WithImage(image string) Option {
	return func(c *containerConfig) {
		c.image = image
	}
}

// WithName sets the container name. Containers with the same name are reused.
func WithName(containerName string) Option {
	return func(c *containerConfig) {
		c.name = containerName
	}
}

func WithCredentials(user, password, dbName string) Option {
	return func(c *containerConfig) {
		c.user = user
		c.password = password
		c.dbName = dbName
	}
}

func WithStartupTimeout(d time.Duration) Option {
	return func(c *containerConfig) {
		c.startup = d
	}
}

// StartPostgres starts (or reuses) a postgres container. fsync is disabled,
// the data is not meant to survive the test run.
func StartPostgres(ctx context.Context, opts ...Option) (*PostgresContainer, error) {
	cfg := &containerConfig{
		image:    "postgres:17",
		name:     "racebet-test",
		user:     "postgres",
		password: "password",
		dbName:   "postgres",
		startup:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image: cfg.image,
		Name:  cfg.name,
		Env: map[string]string{
			"POSTGRES_USER":     cfg.user,
			"POSTGRES_PASSWORD": cfg.password,
			"POSTGRES_DB":       cfg.dbName,
		},
		ExposedPorts: []string{string(defaultPort)},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		// the init scripts restart the server once, hence two occurrences
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(cfg.startup),
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{
		Container: container,
		user:      cfg.user,
		password:  cfg.password,
		dbName:    cfg.dbName,
	}, nil
}

// ConnString returns the url to reach the database from the test process.
func (c *PostgresContainer) ConnString(ctx context.Context) (string, error) {
	port, err := c.MappedPort(ctx, defaultPort)
	if err != nil {
		return "", err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.user, c.password, host, port.Port(), c.dbName), nil
}
