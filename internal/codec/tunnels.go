package codec

import (
	"errors"

	"cpolarstatus/pkg/domain"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrInvalidJSON = errors.New("codec: invalid tunnel list json")

// 隧道字段在 JSON 中的键，顺序即输出顺序
const (
	KeyName       = "name"
	KeyURL        = "url"
	KeyIP         = "ip"
	KeyRegion     = "region"
	KeyCreateTime = "createTime"
)

// EncodeTunnels 将隧道列表编码为 JSON 数组，保持行顺序
func EncodeTunnels(list domain.TunnelList) (string, error) {
	out := "[]"
	for _, rec := range list {
		obj, err := EncodeTunnel(rec)
		if err != nil {
			return "", err
		}
		// -1 表示追加到数组末尾
		if out, err = sjson.SetRaw(out, "-1", obj); err != nil {
			return "", err
		}
	}
	return out, nil
}

// EncodeTunnel 将单条隧道编码为 JSON 对象
func EncodeTunnel(rec domain.TunnelRecord) (string, error) {
	obj := "{}"
	pairs := [...]struct {
		key string
		val string
	}{
		{KeyName, rec.Name},
		{KeyURL, rec.URL},
		{KeyIP, rec.IP},
		{KeyRegion, rec.Region},
		{KeyCreateTime, rec.CreateTime},
	}
	var err error
	for _, p := range pairs {
		if obj, err = sjson.Set(obj, p.key, p.val); err != nil {
			return "", err
		}
	}
	return obj, nil
}

// DecodeTunnels 解析 EncodeTunnels 生成的 JSON 数组，缺失字段为空字符串
func DecodeTunnels(s string) (domain.TunnelList, error) {
	if !gjson.Valid(s) {
		return nil, ErrInvalidJSON
	}
	res := gjson.Parse(s)
	if !res.IsArray() {
		return nil, ErrInvalidJSON
	}

	list := make(domain.TunnelList, 0)
	res.ForEach(func(_, v gjson.Result) bool {
		list = append(list, domain.TunnelRecord{
			Name:       v.Get(KeyName).String(),
			URL:        v.Get(KeyURL).String(),
			IP:         v.Get(KeyIP).String(),
			Region:     v.Get(KeyRegion).String(),
			CreateTime: v.Get(KeyCreateTime).String(),
		})
		return true
	})
	return list, nil
}
