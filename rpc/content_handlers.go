package rpc

import (
	"net/http"

	"crowdledger/native/content"
)

type contentResult struct {
	Owner          string             `json:"owner"`
	ContentHash    string             `json:"contentHash"`
	MetadataHash   string             `json:"metadataHash"`
	Likes          uint64             `json:"likes"`
	Dislikes       uint64             `json:"dislikes"`
	HarvestedLikes uint64             `json:"harvestedLikes"`
	Tombstoned     bool               `json:"tombstoned"`
	RepliesTo      []identifierParams `json:"repliesTo,omitempty"`
	RepliedBy      []identifierParams `json:"repliedBy,omitempty"`
}

type libraryLengthParams struct {
	Type string `json:"type"`
}

type libraryLengthResult struct {
	Type   string `json:"type"`
	Length uint64 `json:"length"`
}

type historicMAUParams struct {
	Period uint64 `json:"period"`
}

type mauResult struct {
	MAU uint64 `json:"mau"`
}

func identifierList(ids []content.Identifier) []identifierParams {
	if len(ids) == 0 {
		return nil
	}
	out := make([]identifierParams, len(ids))
	for i, id := range ids {
		out[i] = identifierParams{Index: id.Index, Type: id.Type.String()}
	}
	return out
}

func (s *Server) contentTarget(w http.ResponseWriter, req *RPCRequest) (content.Identifier, bool) {
	var params identifierParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return content.Identifier{}, false
	}
	id, ok := params.identifier()
	if !ok {
		writeRPCError(w, req.ID, codeInvalidParams, "unknown content type")
		return content.Identifier{}, false
	}
	return id, true
}

func (s *Server) handleContentGet(w http.ResponseWriter, req *RPCRequest) {
	id, ok := s.contentTarget(w, req)
	if !ok {
		return
	}
	record, err := s.engine.GetContentByID(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, contentResult{
		Owner:          record.Owner.Hex(),
		ContentHash:    record.ContentHash.Hex(),
		MetadataHash:   record.MetadataHash.Hex(),
		Likes:          record.Likes,
		Dislikes:       record.Dislikes,
		HarvestedLikes: record.HarvestedLikes,
		Tombstoned:     record.Tombstoned(),
		RepliesTo:      identifierList(record.RepliesTo),
		RepliedBy:      identifierList(record.RepliedBy),
	})
}

func (s *Server) handleLibraryLength(w http.ResponseWriter, req *RPCRequest) {
	var params libraryLengthParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	contentType, ok := content.ParseType(params.Type)
	if !ok {
		writeRPCError(w, req.ID, codeInvalidParams, "unknown content type")
		return
	}
	length, err := s.engine.GetContentLibraryLength(contentType)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, libraryLengthResult{Type: contentType.String(), Length: length})
}

func (s *Server) handleRepliesOf(w http.ResponseWriter, req *RPCRequest) {
	id, ok := s.contentTarget(w, req)
	if !ok {
		return
	}
	ids, err := s.engine.GetRepliesOf(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, identifierList(ids))
}

func (s *Server) handleRepliedBy(w http.ResponseWriter, req *RPCRequest) {
	id, ok := s.contentTarget(w, req)
	if !ok {
		return
	}
	ids, err := s.engine.GetRepliedBy(id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, identifierList(ids))
}

func (s *Server) handleCurrentMAU(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, mauResult{MAU: s.engine.CurrentPeriodMAU()})
}

func (s *Server) handleHistoricMAU(w http.ResponseWriter, req *RPCRequest) {
	var params historicMAUParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	mau, err := s.engine.HistoricMAU(params.Period)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, mauResult{MAU: mau})
}
