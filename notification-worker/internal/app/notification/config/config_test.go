package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSender(t *testing.T) {
	t.Setenv("SENDER", "")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SENDER", "shop@example.com")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SENDGRID_TEMPLATE_ORDER_PAID", "d-paid")
	t.Setenv("SENDGRID_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "notification-worker", cfg.Kafka.GroupID)
	assert.Equal(t, "d-paid", cfg.SendGrid.Templates["ORDER_PAID"])
	assert.Empty(t, cfg.SendGrid.Templates["CONTACT_REPLY"])
	assert.Equal(t, 3*time.Second, cfg.SendGrid.Timeout)
	assert.Equal(t, ":8081", cfg.Server.Address())
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("SENDER", "shop@example.com")
	t.Setenv("SENDGRID_TIMEOUT", "later")

	_, err := Load()

	assert.Error(t, err)
}
