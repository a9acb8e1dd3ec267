package entity

import (
	"github.com/LouYuanbo1/wikisearch/internal/domain/model"
)

// 可转换为索引文档的爬取结果
type Crawlable interface {
	ToDocument() model.Document
}

// MovieTitle 是分类页爬取结果,对应 titles CSV 的一行
type MovieTitle struct {
	Title string `csv:"title"`
}

// Article 是文章爬取结果,对应 articles CSV 的一行
type Article struct {
	Title   string `csv:"title"`
	Content string `csv:"content"`
}

func (a Article) ToDocument() model.Document {
	return model.Document{Title: a.Title, Content: a.Content}
}

// ToDocuments 保持输入顺序,批量导入按位置分配 ID
func ToDocuments[C Crawlable](rows []C) []model.Document {
	docs := make([]model.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.ToDocument())
	}
	return docs
}
