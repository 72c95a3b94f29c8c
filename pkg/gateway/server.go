package gateway

import (
	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"net/http"
	"rflinkgateway/pkg/apis"
	"rflinkgateway/pkg/apis/response"
	"rflinkgateway/pkg/runtime"
)

func InstallHandler(group *gin.RouterGroup, mgr *Manager) {
	group.GET("/gatewayMeta", getGatewayMeta(mgr))
	group.GET("/gatewayCpu", getGatewayCpu(mgr))
	group.GET("/gatewayMem", getGatewayMem(mgr))
	group.GET("/gatewayDisk", getGatewayDisk(mgr))
	group.POST("/commands", postCommands(mgr))
}

func getGatewayMeta(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, _ := mgr.GetGatewayMeta()
		c.Header(apis.ETag, g.GetVersion())
		c.JSON(http.StatusOK, g)
	}
}

func getGatewayCpu(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cpu, err := mgr.getGatewayCpu()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ResponseModel{Cpus: cpu})
	}
}

func getGatewayMem(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mem, err := mgr.getGatewayMem()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ResponseModel{Mem: mem})
	}
}

func getGatewayDisk(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		disks, err := mgr.getGatewayDisk()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ResponseModel{Disks: disks})
	}
}

type commandsRequest struct {
	Commands []map[string]interface{} `json:"commands"`
}

type commandSpec struct {
	Kind      string `mapstructure:"kind"`
	Family    string `mapstructure:"family"`
	DeviceID  string `mapstructure:"deviceId"`
	Parameter string `mapstructure:"parameter"`
	Payload   string `mapstructure:"payload"`
}

// postCommands queues the commands of the request body, all or nothing.
func postCommands(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body commandsRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			klog.V(2).InfoS("Failed to parse commands", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if len(body.Commands) == 0 {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrRequestBody))
			return
		}

		cmds, errs := decodeCommands(body.Commands)
		if errs.Len() > 0 {
			c.JSON(http.StatusBadRequest, errs)
			return
		}
		mgr.SubmitCommands(cmds...)
		c.JSON(http.StatusAccepted, ResponseModel{Accepted: len(cmds)})
	}
}

func decodeCommands(raw []map[string]interface{}) ([]runtime.DeviceCommand, *response.MultiError) {
	errs := &response.MultiError{}
	cmds := make([]runtime.DeviceCommand, 0, len(raw))
	fldPath := field.NewPath("commands")
	for i, item := range raw {
		spec := commandSpec{Kind: runtime.Normal.String()}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			Result:           &spec,
		})
		if err != nil {
			errs.Add(response.ErrCommandMalformed(i, err))
			continue
		}
		if err := decoder.Decode(item); err != nil {
			errs.Add(response.ErrCommandMalformed(i, err))
			continue
		}

		kind, ok := runtime.StringToKind[spec.Kind]
		if !ok {
			errs.Add(response.ErrCommandInvalid(field.NotSupported(fldPath.Index(i).Child("kind"), spec.Kind, []string{runtime.Normal.String(), runtime.SpecialControl.String()}).Error()))
			continue
		}
		cmd := runtime.DeviceCommand{
			Kind:      kind,
			Family:    spec.Family,
			DeviceID:  spec.DeviceID,
			Parameter: spec.Parameter,
			Payload:   spec.Payload,
		}
		if kind == runtime.SpecialControl && (len(cmd.Family) > 0 || len(cmd.DeviceID) > 0 || len(cmd.Parameter) > 0) {
			errs.Add(response.ErrCommandInvalid(field.Forbidden(fldPath.Index(i), "special control commands carry only a payload").Error()))
			continue
		}
		for _, fieldErr := range runtime.ValidateCommand(cmd, fldPath.Index(i)) {
			errs.Add(response.ErrCommandInvalid(fieldErr.Error()))
		}
		cmds = append(cmds, cmd)
	}
	return cmds, errs
}
