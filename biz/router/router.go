package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/smallbiznis/valora/biz/handler"
	"github.com/smallbiznis/valora/biz/middleware"
)

// Handlers groups everything the route table mounts.
type Handlers struct {
	Platform    *handler.PlatformHandler
	Studio      *handler.StudioHandler
	Data        *handler.DataHandler
	Calculation *handler.CalculationHandler
	Attachment  *handler.AttachmentHandler
}

// Register wires the full route table. Mutating routes additionally
// pass through the global write lock when Redis locking is enabled.
func Register(r *server.Hertz, h Handlers) {
	writeMw := middleware.WriteLockMw()

	api := r.Group("/api", middleware.RequireTenant())

	platform := api.Group("/platform")
	object := platform.Group("/object")
	object.GET("/list", h.Platform.ListObjects)
	object.GET("/list/:env", h.Platform.ListObjects)
	object.GET("/:objectCode/latest", h.Platform.GetLatestSchema)
	object.GET("/:objectCode/published", h.Platform.GetPublishedSchema)
	object.GET("/:objectCode/version/:version", h.Platform.GetSchemaByVersion)
	object.GET("/:objectCode/versions", h.Platform.ListVersions)
	object.POST("/:objectCode/draft", append(writeMw, h.Studio.SaveDraft)...)
	object.POST("/:objectCode/publish", append(writeMw, h.Studio.Publish)...)
	object.POST("/:objectCode/unpublish", append(writeMw, h.Studio.Unpublish)...)
	object.DELETE("/:objectCode", append(writeMw, h.Studio.DeleteObject)...)
	object.POST("/:objectCode/attachment", append(writeMw, h.Attachment.Upload)...)
	object.GET("/:objectCode/attachments", h.Attachment.List)

	definition := platform.Group("/definition")
	definition.POST("", append(writeMw, h.Data.CreateDefinition)...)
	definition.GET("", h.Data.ListDefinitions)
	definition.GET("/:module", h.Data.GetDefinition)
	definition.DELETE("/:module", append(writeMw, h.Data.DeleteDefinition)...)

	data := api.Group("/data")
	data.POST("/:module", append(writeMw, h.Data.CreateRecord)...)
	data.GET("/:module", h.Data.ListRecords)
	data.GET("/:module/:recordId", h.Data.GetRecord)
	data.PUT("/:module/:recordId", append(writeMw, h.Data.UpdateRecord)...)
	data.DELETE("/:module/:recordId", append(writeMw, h.Data.DeleteRecord)...)

	api.POST("/query/ExecuteQuery", h.Data.ExecuteQuery)

	calculation := api.Group("/calculation")
	calculation.POST("/execute", h.Calculation.Calculate)
	calculation.POST("/commit", h.Calculation.CommitTemp)

	// File downloads are keyed by file ID alone; no tenant header needed.
	files := r.Group("/api/platform/files")
	files.GET("/:fileId", h.Attachment.GetFile)
	deleteChain := append([]app.HandlerFunc{middleware.RequireTenant()}, writeMw...)
	files.DELETE("/:fileId", append(deleteChain, h.Attachment.Delete)...)

	studio := r.Group("/studio", middleware.RequireTenant())
	studio.POST("/screens/publish", append(writeMw, h.Studio.PublishScreen)...)

	// Onboarding has no tenant context yet; the new tenant rides in the body.
	r.POST("/api/tenant/onboard", append(writeMw, h.Studio.OnboardTenant)...)

	r.GET("/ping", Ping)
}

// Ping is a liveness probe.
func Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"message": "pong"})
}
