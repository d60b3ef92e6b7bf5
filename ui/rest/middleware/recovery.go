package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-citas/pkg/error"
	"github.com/AzielCF/az-citas/pkg/utils"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				logrus.WithFields(logrus.Fields{
					"method": ctx.Method(),
					"path":   ctx.Path(),
				}).Errorf("[HTTP] Panic recovered in middleware: %v", err)

				if genericErr, ok := err.(pkgError.GenericError); ok {
					res.Status = genericErr.StatusCode()
					res.Code = genericErr.ErrCode()
					res.Message = genericErr.Error()
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}

// ErrorHandler traduce los errores devueltos por los handlers al sobre ResponseData.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	res := utils.ResponseData{Status: fiber.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: err.Error()}

	switch e := err.(type) {
	case pkgError.GenericError:
		res.Status = e.StatusCode()
		res.Code = e.ErrCode()
	case *fiber.Error:
		res.Status = e.Code
		res.Code = "HTTP_ERROR"
	}
	if res.Status >= 500 {
		logrus.WithError(err).WithField("path", ctx.Path()).Error("[HTTP] Request failed")
	}
	return ctx.Status(res.Status).JSON(res)
}
