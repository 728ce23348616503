package testhelpers

import (
	"context"

	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

type RabbitMQContainer struct {
	*rabbitmq.RabbitMQContainer
	Host string
	Port int
}

func CreateRabbitMQContainer(ctx context.Context) (*RabbitMQContainer, error) {
	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12.11-management-alpine")
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}

	port, err := container.MappedPort(ctx, "5672/tcp")
	if err != nil {
		return nil, err
	}

	return &RabbitMQContainer{
		RabbitMQContainer: container,
		Host:              host,
		Port:              port.Int(),
	}, nil
}
