package function

import (
	"time"

	"github.com/dop251/goja"
	"github.com/hookscope/hookscope/utils"
)

// UtilsAPI is exposed to scripts as `utils`.
type UtilsAPI struct {
	vm    *goja.Runtime
	clock func() time.Time
}

func NewUtilsAPI(vm *goja.Runtime, clock func() time.Time) *UtilsAPI {
	if clock == nil {
		clock = time.Now
	}
	return &UtilsAPI{vm: vm, clock: clock}
}

func (api *UtilsAPI) object() *goja.Object {
	o := api.vm.NewObject()
	_ = o.Set("uuid", api.UUID)
	_ = o.Set("now", api.Now)
	_ = o.Set("hmac", api.Hmac)
	_ = o.Set("encode", api.Encode)
	_ = o.Set("timingSafeEqual", api.TimingSafeEqual)
	return o
}

func (api *UtilsAPI) UUID() string {
	return utils.UUID()
}

func (api *UtilsAPI) Now() string {
	return api.clock().UTC().Format(timestampFormat)
}

// Hmac returns the digest as an ArrayBuffer. key and data may be strings,
// ArrayBuffers or typed arrays.
func (api *UtilsAPI) Hmac(algorithm string, key goja.Value, data goja.Value) (goja.ArrayBuffer, error) {
	b, err := utils.Hmac(algorithm, bytesOf(key), bytesOf(data))
	if err != nil {
		return goja.ArrayBuffer{}, err
	}
	return api.vm.NewArrayBuffer(b), nil
}

func (api *UtilsAPI) Encode(encoding string, data goja.Value) (string, error) {
	return utils.Encode(encoding, bytesOf(data))
}

func (api *UtilsAPI) TimingSafeEqual(a goja.Value, b goja.Value) bool {
	return utils.DigestEqual(string(bytesOf(a)), string(bytesOf(b)))
}

func bytesOf(v goja.Value) []byte {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch e := v.Export().(type) {
	case goja.ArrayBuffer:
		return e.Bytes()
	case []byte:
		return e
	}
	return []byte(v.String())
}
