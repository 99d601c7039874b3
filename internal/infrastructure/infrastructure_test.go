package infrastructure_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/assent/internal/config"
	"github.com/JaimeStill/assent/internal/infrastructure"
	"github.com/JaimeStill/assent/pkg/database"
	"github.com/JaimeStill/assent/pkg/storage"
	"github.com/JaimeStill/assent/pkg/throttle"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "assent",
			User:            "assent",
			Password:        "assent",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "policies",
			ConnectionString: azuriteConnString,
		},
	}
	if err := cfg.Throttle.Finalize(nil); err != nil {
		t.Fatalf("throttle finalize: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil || infra.Database.Connection() == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
	if infra.Metrics == nil {
		t.Error("Metrics is nil")
	}
	if infra.Throttle == nil {
		t.Fatal("Throttle is nil")
	}

	infra.Database.Connection().Close()
}

func TestMetricsRegistered(t *testing.T) {
	infra, err := infrastructure.New(validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	infra.Throttle.Check(throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 1}, "client")

	families, err := infra.Metrics.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	for _, want := range []string{
		"assent_throttle_checks_total",
		"go_sql_max_open_connections",
		"go_goroutines",
	} {
		if !names[want] {
			t.Errorf("%s not registered on the infrastructure registry", want)
		}
	}
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.ConnectionString = "not-a-connection-string"

	if _, err := infrastructure.New(cfg); err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}
