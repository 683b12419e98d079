package resources

import (
	"context"

	"babyshop/crud"
	"babyshop/gateway"
)

// MaxBlogImages caps hosted plus newly staged images of a post.
const MaxBlogImages = 6

// BlogPost is the blog entry screen. Posts are sent as multipart forms; images
// already on the server are kept by the server and cannot be removed here.
func BlogPost(api *gateway.Client, pageSize int, categories func(context.Context) ([]crud.Option, error)) *crud.Resource {
	return &crud.Resource{
		Name:      Blogs,
		Title:     "Blog",
		IDField:   "blogId",
		IDAliases: []string{"blogID", "BlogID", "BlogId"},
		IDKey:     "BlogID",
		NumericID: true,
		IDPolicy:  crud.IDOnUpdate,
		Fields: []crud.Field{
			{Name: "blogCategoryId", Aliases: []string{"blogCategoryID", "BlogCategoryID"}, Key: "BlogCategoryID",
				Label: "Blog Category", Kind: crud.KindNumber, Lookup: categories,
				Rules: []crud.Rule{crud.NonZero("Blog Category required")}},
			{Name: "productId", Aliases: []string{"productID", "ProductID"}, Key: "ProductID",
				Label: "Product ID", Kind: crud.KindNumber,
				Rules: []crud.Rule{crud.NonZero("ProductID required")}},
			{Name: "name", Key: "Name", Label: "Name", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Name required")}},
			{Name: "description", Key: "Description", Label: "Description", Kind: crud.KindText},
			{Name: "statusId", Aliases: []string{"statusID", "StatusID"}, Key: "StatusID", Label: "Status ID", Kind: crud.KindNumber},
			{Name: "createdBy", Aliases: []string{"CreatedBy"}, Key: "CreatedBy", Label: "Created By", Kind: crud.KindNumber},
			{Name: "images", Aliases: []string{"Images"}, Key: "Images", Label: "Images", Kind: crud.KindImages,
				MaxFiles: MaxBlogImages, Resolve: api.Resolve, Omit: true,
				Rules: []crud.Rule{crud.MinImagesOnCreate(1, "At least 1 image required")}},
		},
		SearchFields: []string{"blogId", "name", "description", "blogCategoryId", "productId"},
		TrimSearch:   true,
		PageSize:     pageSize,
		Backend: crud.NewRESTBackend(api, crud.Endpoints{
			List:      "/api/Blog/blogs",
			Get:       "/api/Blog/GetBlogById?BlogID={id}",
			Create:    "/api/Blog/CreateBlog",
			Update:    "/api/Blog/UpdateBlog",
			Delete:    "/api/Blog/DeleteBlogById?BlogID={id}",
			Multipart: true,
		}),
		Project: func(row crud.Record) crud.Record {
			cover := ""
			if imgs := crud.ToStrings(row["images"]); len(imgs) > 0 {
				cover = imgs[0]
			}
			return crud.Record{"coverImageUrl": cover}
		},
		LockServerImages: true,
	}
}
