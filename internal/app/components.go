package app

import (
	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/service"
	"github.com/lumina-study/block-store/internal/store"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Store holds the registry of fetched documents
	Store *store.Store

	// Controller runs add operations against Store
	Controller *lifecycle.Controller

	// BlockService provides the API's business logic
	BlockService service.BlockService
}
