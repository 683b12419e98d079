package resources

import (
	"net/http"

	"babyshop/crud"
	"babyshop/gateway"
)

// Category is the product category screen.
//
// The backend exposes update and delete under GetCategoryById and
// DeleteCategoryById with PUT; both are used exactly as routed.
func Category(api *gateway.Client, pageSize int) *crud.Resource {
	return &crud.Resource{
		Name:      Categories,
		Title:     "Category",
		IDField:   "categoryId",
		IDAliases: []string{"CategoryID", "id"},
		NumericID: true,
		IDPolicy:  crud.IDAlways,
		Fields: []crud.Field{
			{Name: "categoryName", Label: "Category Name", Kind: crud.KindText,
				Rules: []crud.Rule{crud.Required("Category name required")}},
		},
		SearchFields: []string{"categoryId", "categoryName"},
		PageSize:     pageSize,
		Backend: crud.NewRESTBackend(api, crud.Endpoints{
			List:         "/api/Category/GetAll_Category",
			Get:          "/api/Category/GetCategoryById/{id}",
			Create:       "/api/Category",
			Update:       "/api/Category/GetCategoryById/{id}",
			UpdateMethod: http.MethodPut,
			Delete:       "/api/Category/DeleteCategoryById/{id}",
			DeleteMethod: http.MethodPut,
			DeleteBody: func(id crud.ID) any {
				return map[string]any{"categoryId": id.Number()}
			},
		}),
		Extra: func(p *crud.Payload, _ bool) {
			p.Set("categoryDescription", "")
			p.Set("statusId", 0)
			p.Set("createdDate", isoNow())
			p.Set("createdBy", 0)
			for _, k := range []string{"keyEntry1", "keyEntry2", "keyEntry3", "keyEntry4", "keyEntry5"} {
				p.Set(k, "")
			}
		},
	}
}
