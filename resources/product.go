package resources

import (
	"babyshop/crud"
)

// MaxProductImages caps the images of one product.
const MaxProductImages = 6

// Product is the catalogue screen. Its backend pushes changes, so the list is
// live and never reloaded after a write.
func Product(backend crud.Backend, pageSize int) *crud.Resource {
	return &crud.Resource{
		Name:     Products,
		Title:    "Product",
		IDField:  "id",
		IDPolicy: crud.IDNever,
		Fields: []crud.Field{
			{Name: "title", Label: "Title", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Title is required")}},
			{Name: "description", Label: "Description", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Description is required")}},
			{Name: "images", Label: "Images", Kind: crud.KindImages, MaxFiles: MaxProductImages,
				Rules: []crud.Rule{crud.MinImages(1, "At least one image is required")}},
		},
		SearchFields: []string{"title", "description"},
		TrimSearch:   true,
		PageSize:     pageSize,
		Backend:      backend,
		Project: func(row crud.Record) crud.Record {
			cover := ""
			if imgs := crud.ToStrings(row["images"]); len(imgs) > 0 {
				cover = imgs[0]
			}
			return crud.Record{"coverImageUrl": cover}
		},
		Messages: crud.Messages{
			Added:   "Product created successfully",
			Updated: "Product updated successfully",
			Deleted: "Product deleted successfully",
		},
	}
}
