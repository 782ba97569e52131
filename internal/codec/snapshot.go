package codec

import (
	"time"

	"cpolarstatus/pkg/domain"

	"github.com/tidwall/sjson"
)

// EncodeSnapshot 将快照编码为 JSON 对象，tunnels 使用 EncodeTunnels 的格式
func EncodeSnapshot(snap *domain.TunnelSnapshot) (string, error) {
	tunnels, err := EncodeTunnels(snap.Tunnels)
	if err != nil {
		return "", err
	}
	obj := "{}"
	if obj, err = sjson.Set(obj, "id", snap.ID); err != nil {
		return "", err
	}
	if obj, err = sjson.Set(obj, "count", snap.Count); err != nil {
		return "", err
	}
	if obj, err = sjson.Set(obj, "createdAt", snap.CreatedAt.Format(time.RFC3339)); err != nil {
		return "", err
	}
	return sjson.SetRaw(obj, "tunnels", tunnels)
}

// EncodeSnapshots 将快照列表编码为 {"total":n,"items":[...]}
func EncodeSnapshots(items []*domain.TunnelSnapshot, total int64) (string, error) {
	out, err := sjson.Set(`{"items":[]}`, "total", total)
	if err != nil {
		return "", err
	}
	for _, snap := range items {
		obj, err := EncodeSnapshot(snap)
		if err != nil {
			return "", err
		}
		if out, err = sjson.SetRaw(out, "items.-1", obj); err != nil {
			return "", err
		}
	}
	return out, nil
}
