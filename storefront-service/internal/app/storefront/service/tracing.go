package service

import (
	"go.opentelemetry.io/otel"
)

const serviceName = "storefront-service"

var tracer = otel.Tracer(serviceName)
