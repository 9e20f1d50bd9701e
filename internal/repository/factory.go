package repository

import (
	"github.com/poolstack/poolstack/internal/domain/client"
	"github.com/poolstack/poolstack/internal/domain/inventory"
	"github.com/poolstack/poolstack/internal/domain/invoice"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	postgresRepo "github.com/poolstack/poolstack/internal/repository/postgres"
)

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

func NewInventoryRepository(db *postgres.DB, logger *logger.Logger) inventory.Repository {
	return postgresRepo.NewInventoryRepository(db, logger)
}
