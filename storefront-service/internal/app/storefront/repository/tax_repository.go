package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrTaxConfigNotFound = errors.New("tax and shipping config not found")
)

type taxRepository struct {
	collection *mongo.Collection
}

// NewTaxRepository создает репозиторий настроек налога и доставки (один документ)
func NewTaxRepository(db *mongo.Database) TaxRepository {
	return &taxRepository{collection: db.Collection("tax_n_shipping")}
}

func (r *taxRepository) Get(ctx context.Context) (*entity.TaxNShipping, error) {
	var tax entity.TaxNShipping
	err := r.collection.FindOne(ctx, bson.M{"_id": entity.TaxNShippingID}).Decode(&tax)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaxConfigNotFound
		}
		return nil, fmt.Errorf("failed to get tax config: %w", err)
	}
	return &tax, nil
}

// Save перезаписывает настройки и атомарно увеличивает version.
// Пустой freeShippingThreshold удаляет поле, тогда действует порог по умолчанию.
func (r *taxRepository) Save(ctx context.Context, taxRate, shippingRate float64, freeShippingThreshold *float64) (*entity.TaxNShipping, error) {
	set := bson.M{
		"taxRate":      taxRate,
		"shippingRate": shippingRate,
		"updatedAt":    time.Now().UTC(),
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if freeShippingThreshold != nil {
		set["freeShippingThreshold"] = *freeShippingThreshold
	} else {
		update["$unset"] = bson.M{"freeShippingThreshold": ""}
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var tax entity.TaxNShipping
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": entity.TaxNShippingID}, update, opts).Decode(&tax)
	if err != nil {
		return nil, fmt.Errorf("failed to save tax config: %w", err)
	}

	return &tax, nil
}
