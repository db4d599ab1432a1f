package rpc

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"crowdledger/core/types"
	"crowdledger/crypto/digest"
	"crowdledger/native/content"
)

type identifierParams struct {
	Index uint64 `json:"index"`
	Type  string `json:"type"`
}

func (p identifierParams) identifier() (content.Identifier, bool) {
	contentType, ok := content.ParseType(p.Type)
	if !ok {
		return content.Identifier{}, false
	}
	return content.Identifier{Type: contentType, Index: p.Index}, true
}

type uploadParams struct {
	Caller       string `json:"caller"`
	Type         string `json:"type"`
	ContentHash  string `json:"contentHash,omitempty"`
	MetadataHash string `json:"metadataHash,omitempty"`
	// Content and Metadata carry raw hex payloads for callers that want
	// the digests computed server-side.
	Content  string `json:"content,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

type uploadResult struct {
	Index uint64 `json:"index"`
	Type  string `json:"type"`
}

type voteParams struct {
	Caller string `json:"caller"`
	identifierParams
}

type harvestResult struct {
	Index  uint64 `json:"index"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

type replyParams struct {
	Caller      string `json:"caller"`
	ReplyIndex  uint64 `json:"replyIndex"`
	ReplyType   string `json:"replyType"`
	TargetIndex uint64 `json:"targetIndex"`
	TargetType  string `json:"targetType"`
}

type withdrawParams struct {
	Caller string `json:"caller"`
}

type withdrawResult struct {
	Amount string `json:"amount"`
}

func (s *Server) handleUpload(w http.ResponseWriter, req *RPCRequest) {
	var params uploadParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	contentType, ok := content.ParseType(params.Type)
	if !ok {
		writeRPCError(w, req.ID, codeInvalidParams, "unknown content type")
		return
	}
	contentHash, err := parseHash(params.ContentHash)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	metadataHash, err := parseHash(params.MetadataHash)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	if params.Content != "" {
		payload, err := hexutil.Decode(params.Content)
		if err != nil {
			writeRPCError(w, req.ID, codeInvalidParams, "content payload must be hex")
			return
		}
		contentHash = digest.Sum(payload)
	}
	if params.Metadata != "" {
		payload, err := hexutil.Decode(params.Metadata)
		if err != nil {
			writeRPCError(w, req.ID, codeInvalidParams, "metadata payload must be hex")
			return
		}
		metadataHash = digest.Sum(payload)
	}
	id, err := s.engine.Upload(caller, contentHash, metadataHash, contentType)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, uploadResult{Index: id.Index, Type: id.Type.String()})
}

func (s *Server) voteTarget(w http.ResponseWriter, req *RPCRequest) (caller types.Address, id content.Identifier, ok bool) {
	var params voteParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return caller, id, false
	}
	addr, err := parseAddress(params.Caller)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return caller, id, false
	}
	parsed, typeOK := params.identifier()
	if !typeOK {
		writeRPCError(w, req.ID, codeInvalidParams, "unknown content type")
		return caller, id, false
	}
	return addr, parsed, true
}

func (s *Server) handleLike(w http.ResponseWriter, req *RPCRequest) {
	caller, id, ok := s.voteTarget(w, req)
	if !ok {
		return
	}
	if err := s.engine.Like(caller, id); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, uploadResult{Index: id.Index, Type: id.Type.String()})
}

func (s *Server) handleDislike(w http.ResponseWriter, req *RPCRequest) {
	caller, id, ok := s.voteTarget(w, req)
	if !ok {
		return
	}
	if err := s.engine.Dislike(caller, id); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, uploadResult{Index: id.Index, Type: id.Type.String()})
}

func (s *Server) handleHarvest(w http.ResponseWriter, req *RPCRequest) {
	caller, id, ok := s.voteTarget(w, req)
	if !ok {
		return
	}
	amount, err := s.engine.HarvestLikes(caller, id)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, harvestResult{Index: id.Index, Type: id.Type.String(), Amount: amount.String()})
}

func (s *Server) handleDelete(w http.ResponseWriter, req *RPCRequest) {
	caller, id, ok := s.voteTarget(w, req)
	if !ok {
		return
	}
	if err := s.engine.Delete(caller, id); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, uploadResult{Index: id.Index, Type: id.Type.String()})
}

func (s *Server) handleVoluntarilyDelete(w http.ResponseWriter, req *RPCRequest) {
	caller, id, ok := s.voteTarget(w, req)
	if !ok {
		return
	}
	if err := s.engine.VoluntarilyDelete(caller, id); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, uploadResult{Index: id.Index, Type: id.Type.String()})
}

func (s *Server) handleReply(w http.ResponseWriter, req *RPCRequest) {
	var params replyParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	replyType, ok := content.ParseType(params.ReplyType)
	if !ok {
		writeRPCError(w, req.ID, codeInvalidParams, "unknown reply content type")
		return
	}
	targetType, ok := content.ParseType(params.TargetType)
	if !ok {
		writeRPCError(w, req.ID, codeInvalidParams, "unknown target content type")
		return
	}
	replyID := content.Identifier{Type: replyType, Index: params.ReplyIndex}
	targetID := content.Identifier{Type: targetType, Index: params.TargetIndex}
	if err := s.engine.Reply(caller, replyID, targetID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "linked"})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	amount, err := s.engine.Withdraw(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, withdrawResult{Amount: amount.String()})
}
