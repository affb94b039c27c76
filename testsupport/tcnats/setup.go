package tcnats

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/nats-io/nats.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupTestNats connects to a jetstream enabled NATS server. TESTNATS_URL
// selects an external server, otherwise a container is started.
func SetupTestNats() *nats.Conn {
	url := os.Getenv("TESTNATS_URL")
	if url == "" {
		url = startContainer()
	}
	nc, err := nats.Connect(url, nats.Name("racebet-test"))
	if err != nil {
		log.Fatal(err)
	}
	return nc
}

func startContainer() string {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "4222")
	if err != nil {
		log.Fatal(err)
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "nats:2.11",
				Cmd:          []string{"-js"},
				ExposedPorts: []string{string(port)},
				Name:         "racebet-test-nats",
				WaitingFor: wait.ForLog("Server is ready").
					WithStartupTimeout(30 * time.Second),
			},
			Started: true,
			Reuse:   true,
		})
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	return fmt.Sprintf("nats://%s:%s", host, containerPort.Port())
}
