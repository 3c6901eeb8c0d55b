package handlers

import "github.com/gin-gonic/gin"

// NewRouter wires every route onto a gin engine
func NewRouter(contracts *ContractHandler, files *FileHandler) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = contracts.maxUploadSize

	r.GET("/health", contracts.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/regulations", contracts.ListRegulations)
		api.POST("/contracts/analyze", contracts.AnalyzeContract)
		api.POST("/contracts/analyze-batch", contracts.AnalyzeBatch)

		api.GET("/files", files.ListFiles)
		api.GET("/files/:id", files.GetFile)
	}
	return r
}
