package server

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/wolfeidau/orgservice/internal/password"
	"github.com/wolfeidau/orgservice/internal/service"
	"gopkg.in/yaml.v3"
)

const bearerScheme = "bearerAuth"

func schemaRef(name string, schema *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, schema)
}

func jsonResponse(description string, schema *openapi3.SchemaRef) *openapi3.Response {
	return openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(schema)
}

func jsonBody(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(schema)}
}

func nameQueryParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("organization_name").
		WithRequired(true).
		WithSchema(openapi3.NewStringSchema())}
}

// buildOpenAPI describes the HTTP surface.
func buildOpenAPI(version string) *openapi3.T {
	organization := openapi3.NewObjectSchema().
		WithProperty("org_id", openapi3.NewUUIDSchema()).
		WithProperty("organization_name", openapi3.NewStringSchema()).
		WithProperty("collection_name", openapi3.NewStringSchema()).
		WithProperty("admin_email", openapi3.NewStringSchema().WithFormat("email")).
		WithProperty("created_at", openapi3.NewDateTimeSchema()).
		WithProperty("updated_at", openapi3.NewDateTimeSchema())

	passwordSchema := openapi3.NewStringSchema().
		WithMinLength(service.MinPasswordLength).
		WithMaxLength(password.MaxLength)

	create := openapi3.NewObjectSchema().
		WithProperty("organization_name", openapi3.NewStringSchema().
			WithMinLength(service.MinNameLength).
			WithMaxLength(service.MaxNameLength).
			WithPattern(service.OrganizationNamePattern)).
		WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
		WithProperty("password", passwordSchema)
	create.Required = []string{"organization_name", "email", "password"}

	update := openapi3.NewObjectSchema().
		WithProperty("organization_name", openapi3.NewStringSchema()).
		WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
		WithProperty("password", passwordSchema)
	update.Required = []string{"organization_name"}

	login := openapi3.NewObjectSchema().
		WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
		WithProperty("password", openapi3.NewStringSchema())
	login.Required = []string{"email", "password"}

	token := openapi3.NewObjectSchema().
		WithProperty("access_token", openapi3.NewStringSchema()).
		WithProperty("token_type", openapi3.NewStringSchema()).
		WithProperty("expires_in", openapi3.NewInt64Schema()).
		WithProperty("expires_at", openapi3.NewDateTimeSchema()).
		WithProperty("org_id", openapi3.NewUUIDSchema()).
		WithProperty("organization_name", openapi3.NewStringSchema()).
		WithProperty("admin_email", openapi3.NewStringSchema())

	problem := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("detail", openapi3.NewStringSchema())

	message := openapi3.NewObjectSchema().WithProperty("message", openapi3.NewStringSchema())

	orgRef := schemaRef("Organization", organization)
	errRef := schemaRef("Error", problem)

	createOp := openapi3.NewOperation()
	createOp.OperationID = "createOrganization"
	createOp.Summary = "Provision an organization, its admin and its tenant collection"
	createOp.RequestBody = jsonBody(schemaRef("CreateOrganizationRequest", create))
	createOp.AddResponse(http.StatusCreated, jsonResponse("Organization created", orgRef))
	createOp.AddResponse(http.StatusBadRequest, jsonResponse("Organization or admin email already exists", errRef))
	createOp.AddResponse(http.StatusUnprocessableEntity, jsonResponse("Invalid input", errRef))

	getOp := openapi3.NewOperation()
	getOp.OperationID = "getOrganization"
	getOp.Summary = "Fetch an organization by name"
	getOp.Parameters = openapi3.Parameters{nameQueryParameter()}
	getOp.AddResponse(http.StatusOK, jsonResponse("Organization", orgRef))
	getOp.AddResponse(http.StatusNotFound, jsonResponse("Organization not found", errRef))
	getOp.AddResponse(http.StatusUnprocessableEntity, jsonResponse("Missing organization_name", errRef))

	secured := &openapi3.SecurityRequirements{openapi3.NewSecurityRequirement().Authenticate(bearerScheme)}

	updateOp := openapi3.NewOperation()
	updateOp.OperationID = "updateOrganization"
	updateOp.Summary = "Change the admin email or password of the caller's organization"
	updateOp.Security = secured
	updateOp.RequestBody = jsonBody(schemaRef("UpdateOrganizationRequest", update))
	updateOp.AddResponse(http.StatusOK, jsonResponse("Organization updated", orgRef))
	updateOp.AddResponse(http.StatusBadRequest, jsonResponse("Admin email already in use", errRef))
	updateOp.AddResponse(http.StatusUnauthorized, jsonResponse("Missing or invalid token", errRef))
	updateOp.AddResponse(http.StatusForbidden, jsonResponse("Token belongs to another organization", errRef))
	updateOp.AddResponse(http.StatusNotFound, jsonResponse("Organization not found", errRef))
	updateOp.AddResponse(http.StatusUnprocessableEntity, jsonResponse("Invalid input", errRef))

	deleteOp := openapi3.NewOperation()
	deleteOp.OperationID = "deleteOrganization"
	deleteOp.Summary = "Delete the caller's organization and drop its tenant collection"
	deleteOp.Security = secured
	deleteOp.Parameters = openapi3.Parameters{nameQueryParameter()}
	deleteOp.AddResponse(http.StatusOK, jsonResponse("Organization deleted", schemaRef("Message", message)))
	deleteOp.AddResponse(http.StatusUnauthorized, jsonResponse("Missing or invalid token", errRef))
	deleteOp.AddResponse(http.StatusForbidden, jsonResponse("Token belongs to another organization", errRef))
	deleteOp.AddResponse(http.StatusNotFound, jsonResponse("Organization not found", errRef))

	loginOp := openapi3.NewOperation()
	loginOp.OperationID = "adminLogin"
	loginOp.Summary = "Exchange admin credentials for a bearer token"
	loginOp.RequestBody = jsonBody(schemaRef("LoginRequest", login))
	loginOp.AddResponse(http.StatusOK, jsonResponse("Token issued", schemaRef("Token", token)))
	loginOp.AddResponse(http.StatusUnauthorized, jsonResponse("Invalid email or password", errRef))
	loginOp.AddResponse(http.StatusUnprocessableEntity, jsonResponse("Invalid input", errRef))

	paths := openapi3.NewPaths()
	paths.Set("/org/create", &openapi3.PathItem{Post: createOp})
	paths.Set("/org/get", &openapi3.PathItem{Get: getOp})
	paths.Set("/org/update", &openapi3.PathItem{Put: updateOp})
	paths.Set("/org/delete", &openapi3.PathItem{Delete: deleteOp})
	paths.Set("/admin/login", &openapi3.PathItem{Post: loginOp})

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       serviceName,
			Description: "Multi-tenant organization management with a collection per tenant",
			Version:     version,
		},
		Paths: paths,
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Organization":              openapi3.NewSchemaRef("", organization),
				"Error":                     openapi3.NewSchemaRef("", problem),
				"Message":                   openapi3.NewSchemaRef("", message),
				"CreateOrganizationRequest": openapi3.NewSchemaRef("", create),
				"UpdateOrganizationRequest": openapi3.NewSchemaRef("", update),
				"LoginRequest":              openapi3.NewSchemaRef("", login),
				"Token":                     openapi3.NewSchemaRef("", token),
			},
			SecuritySchemes: openapi3.SecuritySchemes{
				bearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
	}
}

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(buildOpenAPI(s.cfg.Version))
}

func (s *Server) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	out, err := yaml.Marshal(buildOpenAPI(s.cfg.Version))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}
