package utils

import "github.com/gin-gonic/gin"

// Response is the envelope every endpoint renders.
type Response struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Redirect     string      `json:"redirect,omitempty"`
	RequiredTier string      `json:"required_tier,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	AbortWithResponse(c, status, Response{Message: message})
}

// AbortWithResponse stops the handler chain and writes a failed envelope.
func AbortWithResponse(c *gin.Context, status int, resp Response) {
	resp.Success = false
	if resp.RequestID == "" {
		resp.RequestID = c.GetString("request_id")
	}
	c.AbortWithStatusJSON(status, resp)
}
