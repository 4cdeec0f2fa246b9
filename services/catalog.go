package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"restaurant-service/models"
	"restaurant-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrItemNotFound is returned by a Catalog when the item does not exist.
var ErrItemNotFound = errors.New("item not found")

// Catalog resolves menu items for pricing and availability.
type Catalog interface {
	LookupItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
}

// LocalCatalog reads items from this service's own items table.
type LocalCatalog struct {
	items repository.ItemRepository
}

func NewLocalCatalog(items repository.ItemRepository) *LocalCatalog {
	return &LocalCatalog{items: items}
}

func (c *LocalCatalog) LookupItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	item, err := c.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// catalogItem is the payload of GET /items/internal/:id on the catalog service.
type catalogItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// HTTPCatalog fetches items from a remote catalog service.
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalog(baseURL string) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPCatalog) LookupItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	url := fmt.Sprintf("%s/items/internal/%s", c.baseURL, itemID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var body catalogItem
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog item: %w", err)
	}
	if body.ID == uuid.Nil {
		body.ID = itemID
	}

	return &models.Item{
		ID:          body.ID,
		Name:        body.Name,
		Price:       body.Price,
		IsAvailable: body.IsAvailable,
	}, nil
}
