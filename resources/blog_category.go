package resources

import (
	"context"
	"fmt"

	"babyshop/crud"
	"babyshop/gateway"
)

func BlogCategory(api *gateway.Client, pageSize int) *crud.Resource {
	return &crud.Resource{
		Name:      BlogCategories,
		Title:     "Blog category",
		IDField:   "categoryId",
		IDAliases: []string{"CategoryID", "blogCategoryID", "BlogCategoryID"},
		NumericID: true,
		IDPolicy:  crud.IDAlways,
		Fields: []crud.Field{
			{Name: "categoryName", Label: "Category Name", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Category name required")}},
			{Name: "categoryDescription", Label: "Description", Kind: crud.KindText},
			{Name: "categoryTypeID", Aliases: []string{"categoryTypeId", "CategoryTypeId"}, Label: "Type ID", Kind: crud.KindNumber},
		},
		SearchFields: []string{"categoryId", "categoryName"},
		PageSize:     pageSize,
		Backend: crud.NewRESTBackend(api, crud.Endpoints{
			List:   "/api/Blog/GetAllCategory_Blogs",
			Get:    "/api/Blog/Get_BlogCategoryByID?BlogCategoryID={id}",
			Create: "/api/Blog/Create_BlogCategory",
			Update: "/api/Blog/Update_BlogCategory",
			Delete: "/api/Blog/Delete_BlogCategory?BlogCategoryID={id}",
		}),
		Extra: func(p *crud.Payload, _ bool) {
			p.Set("statusId", 0)
			p.Set("createdDate", isoNow())
			p.Set("createdBy", 0)
			p.Set("keyEntry1", "")
			p.Set("keyEntry2", "")
		},
	}
}

var (
	categoryLabelKeys = []string{"categoryName", "CategoryName", "name", "Name"}
	categoryValueKeys = []string{"categoryId", "CategoryId", "BlogCategoryID", "blogCategoryID"}
)

// CategoryOptions turns the blog category list into dropdown options. Rows
// without a usable id are skipped.
func CategoryOptions(list crud.Backend) func(ctx context.Context) ([]crud.Option, error) {
	return func(ctx context.Context) ([]crud.Option, error) {
		rows, err := list.List(ctx)
		if err != nil {
			return nil, err
		}
		opts := make([]crud.Option, 0, len(rows))
		for _, row := range rows {
			v, _ := gateway.Coalesce(row, categoryValueKeys...)
			value := crud.ToNumber(v)
			if value == 0 {
				continue
			}
			label := ""
			if l, ok := gateway.Coalesce(row, categoryLabelKeys...); ok {
				label = crud.ToString(l)
			}
			if label == "" {
				label = fmt.Sprintf("Category %s", crud.IDOf(v))
			}
			opts = append(opts, crud.Option{Label: label, Value: value})
		}
		return opts, nil
	}
}
