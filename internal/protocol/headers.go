package protocol

import "net/http"

// 模拟 Chrome 的请求头，服务端只要求能接受，取值本身无业务含义
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36"
	Platform       = `"Windows"`
	AcceptLanguage = "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7"
)

// BrowserHeaders 返回每个请求都携带的固定请求头
func BrowserHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", UserAgent)
	h.Set("Sec-Ch-Ua-Platform", Platform)
	h.Set("Accept-Language", AcceptLanguage)
	return h
}

// ApplyHeaders 将 src 中的请求头复制到 req
func ApplyHeaders(req *http.Request, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}
