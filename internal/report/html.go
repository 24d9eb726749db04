package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/model"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/wizard"
)

// HTMLData 用于模板渲染的数据。PreviewImage 是 data URI，
// 必须以 template.URL 传入，否则会被模板的 URL 过滤器替换成 #ZgotmplZ。
type HTMLData struct {
	Date         string
	CustomerName string
	Best         model.ColorScheme
	Others       []model.ColorScheme
	Search       *model.SearchResult
	PreviewImage template.URL
}

const htmlTpl = `
<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.CustomerName}} | 配色方案报告</title>
    <style>
        :root {
            --primary-color: #2563eb;
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        h1 { font-size: 2.2rem; margin: 0 0 10px 0; }
        .date-info { color: var(--text-secondary); }

        .scheme-card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.05);
            border: 1px solid var(--border-color);
        }
        .scheme-card.best { border: 2px solid var(--primary-color); }
        .scheme-header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 16px;
            border-bottom: 1px solid #f1f5f9;
            padding-bottom: 12px;
        }
        .scheme-title { font-size: 1.5rem; font-weight: 800; color: #0f172a; }
        .scheme-title small { display: block; font-size: 0.9rem; color: var(--text-secondary); font-weight: 400; }
        .scheme-score {
            background: #dcfce7; color: #166534;
            padding: 4px 12px; border-radius: 20px; font-weight: bold;
        }

        .swatches { display: flex; gap: 16px; margin: 16px 0; }
        .swatch { flex: 1; text-align: center; }
        .swatch .chip { height: 72px; border-radius: 8px; border: 1px solid var(--border-color); }
        .swatch .hex { font-family: ui-monospace, monospace; font-size: 0.85rem; color: var(--text-secondary); margin-top: 6px; }

        table.scores { width: 100%; border-collapse: collapse; margin: 12px 0; }
        table.scores th, table.scores td { border: 1px solid var(--border-color); padding: 6px 10px; font-size: 0.9rem; }
        table.scores th { background: #f1f5f9; text-align: left; }

        .advice { background: #eff6ff; border-left: 4px solid var(--primary-color); padding: 12px 16px; border-radius: 8px; margin: 12px 0; }
        .swot { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; margin: 12px 0; }
        .swot div { padding: 12px 16px; border-radius: 8px; }
        .swot .strengths { background: #f0fdf4; border-left: 4px solid #22c55e; }
        .swot .weaknesses { background: #fef2f2; border-left: 4px solid #ef4444; }

        .market { background: var(--card-bg); border: 1px solid var(--border-color); border-radius: 12px; padding: 24px; margin-bottom: 30px; }
        .keywords span { display: inline-block; background: #f1f5f9; border-radius: 12px; padding: 2px 10px; margin: 2px; font-size: 0.85rem; }

        .preview img { max-width: 100%; border-radius: 12px; border: 1px solid var(--border-color); }

        .references { margin-top: 16px; padding-top: 12px; border-top: 1px dashed var(--border-color); font-size: 0.9rem; }
        .ref-title { font-weight: bold; color: var(--text-secondary); margin-bottom: 8px; }
        .ref-list { list-style: none; padding: 0; }
        .ref-list li { margin-bottom: 6px; }
        .ref-list a { color: var(--primary-color); text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>🎨 {{.CustomerName}} 配色方案报告</h1>
            <div class="date-info">{{.Date}}</div>
        </header>

        <div class="scheme-card best">
            <div class="scheme-header">
                <div class="scheme-title">{{.Best.Name.Zh}}{{if .Best.Name.En}}<small>{{.Best.Name.En}}</small>{{end}}</div>
                <div class="scheme-score">综合 {{printf "%.2f" .Best.WeightedScore}}/10</div>
            </div>

            <p>{{.Best.Description.Zh}}</p>

            <div class="swatches">
                <div class="swatch"><div class="chip" style="background: {{.Best.Palette.Primary}}"></div><div class="hex">主色 {{.Best.Palette.Primary}}</div></div>
                <div class="swatch"><div class="chip" style="background: {{.Best.Palette.Secondary}}"></div><div class="hex">辅色 {{.Best.Palette.Secondary}}</div></div>
                <div class="swatch"><div class="chip" style="background: {{.Best.Palette.Accent}}"></div><div class="hex">点缀 {{.Best.Palette.Accent}}</div></div>
            </div>

            <table class="scores">
                <tr><th>评分项</th><th>权重</th><th>得分</th></tr>
                <tr><td>需求契合度</td><td>30%</td><td>{{printf "%.1f" .Best.Scores.Match}}</td></tr>
                <tr><td>趋势契合度</td><td>25%</td><td>{{printf "%.1f" .Best.Scores.Trend}}</td></tr>
                <tr><td>市场接受度</td><td>20%</td><td>{{printf "%.1f" .Best.Scores.Market}}</td></tr>
                <tr><td>创新性</td><td>15%</td><td>{{printf "%.1f" .Best.Scores.Innovation}}</td></tr>
                <tr><td>色彩和谐度</td><td>10%</td><td>{{printf "%.1f" .Best.Scores.Harmony}}</td></tr>
            </table>

            {{if .Best.UsageAdvice.Zh}}<div class="advice">💡 {{.Best.UsageAdvice.Zh}}</div>{{end}}

            {{if .Best.SWOT}}
            <div class="swot">
                <div class="strengths">
                    <strong>优势</strong>
                    <ul>{{range .Best.SWOT.Strengths}}<li>{{.}}</li>{{end}}</ul>
                </div>
                <div class="weaknesses">
                    <strong>劣势</strong>
                    <ul>{{range .Best.SWOT.Weaknesses}}<li>{{.}}</li>{{end}}</ul>
                </div>
            </div>
            {{end}}

            {{if .PreviewImage}}
            <div class="preview"><img src="{{.PreviewImage}}" alt="配色应用预览"></div>
            {{end}}

            {{if .Best.Sources}}
            <div class="references">
                <div class="ref-title">🔗 参考来源</div>
                <ul class="ref-list">
                    {{range .Best.Sources}}
                    <li><a href="{{.URL}}" target="_blank">{{if .Title}}{{.Title}}{{else}}{{.URL}}{{end}}</a></li>
                    {{end}}
                </ul>
            </div>
            {{end}}
        </div>

        {{if .Search}}
        <div class="market">
            <h2>📈 市场调研</h2>
            {{if .Search.MarketInsight.Zh}}<p>{{.Search.MarketInsight.Zh}}</p>{{end}}
            {{if .Search.Trends}}
            <h3>趋势</h3>
            <ul>{{range .Search.Trends}}<li>{{.Zh}}{{if .En}} <em>({{.En}})</em>{{end}}</li>{{end}}</ul>
            {{end}}
            {{if .Search.Competitors}}
            <h3>竞品</h3>
            <ul>{{range .Search.Competitors}}<li>{{.Zh}}{{if .En}} <em>({{.En}})</em>{{end}}</li>{{end}}</ul>
            {{end}}
            {{if .Search.Keywords}}
            <div class="keywords">{{range .Search.Keywords}}<span>{{.}}</span>{{end}}</div>
            {{end}}
        </div>
        {{end}}

        {{range .Others}}
        <div class="scheme-card">
            <div class="scheme-header">
                <div class="scheme-title">{{.Name.Zh}}</div>
                <div class="scheme-score">综合 {{printf "%.2f" .WeightedScore}}/10</div>
            </div>
            <div class="swatches">
                <div class="swatch"><div class="chip" style="background: {{.Palette.Primary}}"></div><div class="hex">{{.Palette.Primary}}</div></div>
                <div class="swatch"><div class="chip" style="background: {{.Palette.Secondary}}"></div><div class="hex">{{.Palette.Secondary}}</div></div>
                <div class="swatch"><div class="chip" style="background: {{.Palette.Accent}}"></div><div class="hex">{{.Palette.Accent}}</div></div>
            </div>
        </div>
        {{end}}
    </div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTpl))

// RenderHTML 渲染屏显版完整双语报告
func RenderHTML(w io.Writer, snap wizard.Snapshot) error {
	best, ok := snap.BestScheme()
	if !ok {
		return fmt.Errorf("没有可渲染的方案")
	}

	var others []model.ColorScheme
	for i, s := range snap.Schemes {
		if i == snap.BestIndex {
			continue
		}
		others = append(others, s)
	}

	data := HTMLData{
		Date:         time.Now().Format("2006-01-02"),
		CustomerName: snap.CustomerName,
		Best:         best,
		Others:       others,
		Search:       snap.Search,
		PreviewImage: previewURL(snap.PreviewImage),
	}
	return reportTemplate.Execute(w, data)
}

// previewURL 把生成端返回的预览图收敛为可内嵌的 data URI。
// 只放行图像类 data URI，其余一律丢弃。
func previewURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return ""
	}
	return template.URL(s)
}
