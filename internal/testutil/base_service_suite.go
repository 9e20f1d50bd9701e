package testutil

import (
	"context"
	"time"

	"github.com/poolstack/poolstack/internal/config"
	"github.com/poolstack/poolstack/internal/domain/client"
	"github.com/poolstack/poolstack/internal/domain/inventory"
	"github.com/poolstack/poolstack/internal/domain/invoice"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo   invoice.Repository
	ClientRepo    client.Repository
	InventoryRepo inventory.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		InvoiceRepo:   NewInMemoryInvoiceStore(),
		ClientRepo:    NewInMemoryClientStore(),
		InventoryRepo: NewInMemoryInventoryStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

// ClearStores resets all in-memory stores
func (s *BaseServiceTestSuite) ClearStores() {
	if store, ok := s.stores.InvoiceRepo.(*InMemoryInvoiceStore); ok {
		store.Clear()
	}
	if store, ok := s.stores.ClientRepo.(*InMemoryClientStore); ok {
		store.Clear()
	}
	if store, ok := s.stores.InventoryRepo.(*InMemoryInventoryStore); ok {
		store.Clear()
	}
}

// GetContext returns the test context scoped to the default organization
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the mock database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetNow returns the suite's reference time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
