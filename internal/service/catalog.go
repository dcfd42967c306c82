package service

import "github.com/iliyamo/labyrinth/internal/model"

// Catalog returns the fixed problem set loaded by Seed, in play order.
func Catalog() []model.Problem {
	return []model.Problem{
		{ProblemID: 1, Title: "복면산?", CorrectAnswer: "puple"},
		{ProblemID: 2, Title: "이븐한 식사", CorrectAnswer: "-8480"},
		{ProblemID: 3, Title: "Little Bigger Star", CorrectAnswer: "animal"},
		{ProblemID: 4, Title: "리크루팅 대모험", CorrectAnswer: "우주최고세계제일"},
		{ProblemID: 5, Title: "이거 어디서 많이 봤는데", CorrectAnswer: "we invite u"},
		{ProblemID: 6, Title: "자기소개 퍼플 방탈출", CorrectAnswer: "퍼플 방탈출"},
		{ProblemID: 7, Title: "집에 가는 길", CorrectAnswer: "world"},
		{ProblemID: 8, Title: "시간을 달려서 @kaist_puple", CorrectAnswer: "tiny"},
	}
}
