package catalog

import (
	"fmt"

	"github.com/retailgenie/orchestrator/pkg/jsonstore"
	"github.com/retailgenie/orchestrator/pkg/types"
)

// StoreProduct is one catalog row inside a physical store's inventory.
type StoreProduct struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	InStock   bool    `json:"in_stock"`
	Rating    float64 `json:"rating,omitempty"`
}

// Store is a physical store with coordinates and its inventory.
type Store struct {
	StoreID     string            `json:"store_id"`
	Name        string            `json:"name"`
	Location    string            `json:"location"`
	Coordinates types.Coordinates `json:"coordinates"`
	Products    []StoreProduct    `json:"products"`
}

// Product is a global catalog entry, independent of any store.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	WearType      string   `json:"wear_type,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Sizes         []string `json:"sizes,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	OriginalPrice float64  `json:"original_price,omitempty"`
}

// Catalog holds the store inventory and global product list loaded at
// startup. It is read-only during request handling.
type Catalog struct {
	stores   []Store
	products []Product
}

type inventoryDocument struct {
	Stores []Store `json:"stores"`
}

type productsDocument struct {
	Products []Product `json:"products"`
}

// Load reads the inventory and product documents from disk.
func Load(inventoryPath, productsPath string) (*Catalog, error) {
	inventoryFile, err := jsonstore.Open(inventoryPath)
	if err != nil {
		return nil, err
	}
	var inventory inventoryDocument
	if err := inventoryFile.Load(&inventory); err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	productsFile, err := jsonstore.Open(productsPath)
	if err != nil {
		return nil, err
	}
	var products productsDocument
	if err := productsFile.LoadOr(&products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	return New(inventory.Stores, products.Products), nil
}

// New builds a catalog from in-memory data, normalizing stock flags.
func New(stores []Store, products []Product) *Catalog {
	normalized := make([]Store, len(stores))
	copy(normalized, stores)
	for i := range normalized {
		for j := range normalized[i].Products {
			// stock 0 must never read as in stock
			if normalized[i].Products[j].Stock <= 0 {
				normalized[i].Products[j].InStock = false
			}
		}
	}
	return &Catalog{stores: normalized, products: products}
}

// Stores returns every loaded store.
func (c *Catalog) Stores() []Store {
	if c == nil {
		return nil
	}
	return c.stores
}

// Products returns the global product list.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	return c.products
}
