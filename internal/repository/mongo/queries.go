package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
)

// productListFilter compiles the catalog filter. Search is matched literally
// and case-insensitively.
func productListFilter(f domain.ProductFilter) bson.D {
	filter := bson.D{{Key: "status", Value: domain.ProductStatusApprove}}
	if !f.AnyCategory() {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	filter = append(filter, bson.E{Key: "price", Value: bson.D{
		{Key: "$gte", Value: f.MinPrice},
		{Key: "$lte", Value: f.MaxPrice},
	}})
	if f.Search != "" {
		filter = append(filter, bson.E{Key: "name", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(f.Search),
			Options: "i",
		}})
	}
	return filter
}

// productListOptions applies sort and the optional page window.
func productListOptions(f domain.ProductFilter) *options.FindOptions {
	opts := options.Find()
	switch f.Sort {
	case domain.SortPriceLow:
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	case domain.SortPriceHigh:
		opts.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}})
	default:
		opts.SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	}
	if f.Paginated() {
		opts.SetSkip(int64(f.Offset())).SetLimit(int64(f.PerPage))
	}
	return opts
}

// sellerLinesPipeline compiles plan into an aggregation over payments:
// filter on delivery, unwind a copy of the product references keeping their
// position, join each to its product and keep the seller's.
func sellerLinesPipeline(plan repository.SellerOrderPlan) mongo.Pipeline {
	var pipeline mongo.Pipeline

	switch plan.State {
	case repository.OrderStateNew:
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$ne", Value: domain.OrderStatusDelivered}}},
		}}})
	case repository.OrderStateHistory:
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "status", Value: domain.OrderStatusDelivered},
		}}})
	}

	return append(pipeline,
		bson.D{{Key: "$addFields", Value: bson.D{{Key: "ref", Value: "$product_ids"}}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$ref"},
			{Key: "includeArrayIndex", Value: "pos"},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: productsCollection},
			{Key: "localField", Value: "ref"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "product"},
		}}},
		bson.D{{Key: "$unwind", Value: "$product"}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "product.owner_email", Value: plan.SellerEmail}}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: 1},
			{Key: "pos", Value: 1},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{{Key: "product_name", Value: "$product.name"}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "pos", Value: 0},
			{Key: "product", Value: 0},
		}}},
	)
}

// cartOwnerFilter selects the owner's items among ids.
func cartOwnerFilter(owner string, ids []string) bson.D {
	return bson.D{
		{Key: "owner_email", Value: owner},
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
	}
}

// referencesProduct selects documents whose product_ids contain id.
func referencesProduct(id string) bson.D {
	return bson.D{{Key: "product_ids", Value: id}}
}
