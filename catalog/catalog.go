package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/storecraft/storefront-api/models"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

const cacheTTL = 5 * time.Minute

// Lookup is the read-only product view the cart and order flows consult for
// price, stock and name. Backed by the products table with an optional Redis
// read-through cache; pass a nil client to go straight to the database.
type Lookup struct {
	db  *gorm.DB
	rdb *redis.Client
}

func New(db *gorm.DB, rdb *redis.Client) *Lookup {
	return &Lookup{db: db, rdb: rdb}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// GetProduct resolves a product by id or returns ErrProductNotFound.
func (l *Lookup) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if l.rdb != nil {
		raw, err := l.rdb.Get(ctx, cacheKey(id)).Result()
		if err == nil {
			var product models.Product
			if jsonErr := json.Unmarshal([]byte(raw), &product); jsonErr == nil {
				return &product, nil
			}
		} else if err != redis.Nil {
			log.Warn().Err(err).Uint("product_id", id).Msg("product cache read failed")
		}
	}

	var product models.Product
	if err := l.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if l.rdb != nil {
		if raw, err := json.Marshal(product); err == nil {
			if err := l.rdb.Set(ctx, cacheKey(id), raw, cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Uint("product_id", id).Msg("product cache write failed")
			}
		}
	}

	return &product, nil
}

// Invalidate drops the cached copy after a product update or a stock change.
func (l *Lookup) Invalidate(ctx context.Context, id uint) {
	if l.rdb == nil {
		return
	}
	if err := l.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Warn().Err(err).Uint("product_id", id).Msg("product cache invalidation failed")
	}
}
